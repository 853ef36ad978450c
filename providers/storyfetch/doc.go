// Package storyfetch imports story text from web pages. [Fetcher.Fetch]
// downloads a page, strips navigation and scripts with goquery, keeps the
// main article and converts it to Markdown with html-to-markdown.
package storyfetch
