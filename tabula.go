// Package tabula answers natural-language questions about a single
// spreadsheet.
//
// Usage:
//
//	import "github.com/spektr-org/tabula/assistant"
//
//	a := assistant.New(client) // nil client answers locally
//	table, _ := helpers.ReadFile("jobs.xlsx")
//	_ = a.LoadTable(ctx, table)
//	out := a.Ask(ctx, "how many jobs at the depot in June?")
//
// A question is first matched against indexed cell values. When nothing
// matches, a language model (or the built-in rules when the model is not
// available) turns it into a filter plan that the engine executes locally.
// The matching records are then phrased as an answer.
//
// The engine never calls any external service. Only the translator and
// formatter packages talk to the model, through llm.Client.
package tabula
