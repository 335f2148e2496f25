// Package records holds the concrete record schemas of the admin dashboard:
// the regulatory test-report forms (above-ground sprinkler test, underground
// piping test, alarm monitoring record) and the business entities (work
// order, service ticket, user, department, customer).
//
// Each schema encodes one paper form: field paths mirror the form sections,
// defaults fill every path, and the conditional requirements ("if the work
// does not conform, explain") live next to the fields they guard. The
// Registry maps resource names to schemas for generic consumers such as the
// CLI and the REST repository.
package records
