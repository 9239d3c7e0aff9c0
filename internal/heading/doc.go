// Package heading decides which layout lines are section headings.
//
// The decision runs in stages over one document at a time:
//
//   - Normalize merges stray single-letter capitals ("I NTRODUCTION") and
//     measures each line.
//   - FilterMargins drops running headers and footers from the top and bottom
//     band of each page.
//   - EstimateStyle picks the body font size and color of the document.
//   - Heuristic.Evaluate applies the short-circuit gates (length, whitespace,
//     math density, symbol fraction, captions, font emphasis) and tags each
//     rejection with a Reason.
//   - A Confirmer, usually the trained classifier, gets the last word on
//     lines the gates accepted.
//   - AssignLevel maps the font ratio to H1, H2 or H3.
//
// Every function here is pure. Style counters live inside a single call, so
// documents can be processed concurrently with no shared state.
//
// # Usage
//
//	ex := heading.NewExtractor(heading.DefaultConfig())
//	res := ex.Extract(doc.ID, doc.Lines, classifier)
//	for _, c := range res.Candidates {
//	    fmt.Printf("%s p%d %s\n", c.Level, c.Page, c.Text)
//	}
package heading
