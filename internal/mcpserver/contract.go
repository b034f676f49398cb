package mcpserver

// QuerySyntaxURI is the resource holding QuerySyntax.
const QuerySyntaxURI = "publish-quartz://query-syntax"

// QuerySyntax describes the query language run_query accepts.
const QuerySyntax = `# Query Syntax

Queries are the body of a Logseq ` + "`{{query ...}}`" + ` block. The wrapper is optional.

## Forms

| Form | Matches |
|------|---------|
| ` + "`(page \"Name\")`" + ` | the page with that name |
| ` + "`(page-tags [[a]] [[b]])`" + ` | pages tagged with any of the tags |
| ` + "`(namespace [[ns]])`" + ` | pages directly in ns/ (not deeper) |
| ` + "`(property key value)`" + ` | pages whose property equals value |
| ` + "`(property key)`" + ` | pages that have the property |
| ` + "`(task TODO DOING)`" + ` | pages containing a task in any of the states |
| ` + "`(priority A B)`" + ` | pages containing [#A] or [#B] |
| ` + "`(between [[2025-01-01]] [[2025-01-31]])`" + ` | journal days in the range, inclusive |
| ` + "`(all-page-tags)`" + ` | pages that are themselves used as tags |
| ` + "`(sort-by key desc)`" + ` | orders the results, matches nothing alone |
| ` + "`[[Page]]`" + ` | pages referencing Page |
| ` + "`\"text\"`" + ` | pages containing the text |

Combine with ` + "`(and ...)`" + `, ` + "`(or ...)`" + ` and ` + "`(not ...)`" + `.
Several top-level forms are combined with and.

## Options

Pass option lines with the query to control rendering:

- ` + "`query-table:: false`" + ` renders a list instead of a table
- ` + "`query-properties:: [:page :status]`" + ` picks the table columns
- ` + "`query-sort-by:: modified`" + ` and ` + "`query-sort-desc:: true`" + ` order results

A query that matches nothing renders an info callout.
`
