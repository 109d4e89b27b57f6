// Package ballotengine implements the voting core of the participation
// context.
//
// The module owns election configuration, the per-voter workflow state
// machine, the per-method ballot validators (approval, ranking, knapsack,
// comparison), atomic ballot commits, and public results aggregation. It
// keeps business rules in application/domain layers and isolates
// infrastructure concerns behind ports and adapters.
package ballotengine
