// Package scoring reconciles the combine stage's overall score with the
// per-agent scores and normalizes the combine output lists.
//
// Two reconciliation strategies exist:
//   - penalty: subtract 5 points per agent scoring below 60, capped at 15
//   - weighted: lower the score to the weighted average of agent scores when
//     it sits more than 5 points below the stated score
//
// A deployment applies exactly one of them.
package scoring
