// Package analyzer contains the pipeline that turns one line of user input
// into a scam assessment. It classifies the input, runs the enrichment lookup
// the active persona allows, renders the prompt, asks the completion service
// for a reply and records flagged indicators.
package analyzer
