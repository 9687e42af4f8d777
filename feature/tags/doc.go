// Package tags manages governance tags in the catalog database: tag definitions with
// optional allowed values, and assignments of tag values to warehouse objects.
//
// Assignments are read from YAML or JSON files of the form
//
//	tag: pii
//	value: email
//	objects:
//	  - type: column
//	    path: ANALYTICS.PUBLIC.USERS.EMAIL
//
// Every lookup is parameter-bound; tag names and object paths never reach SQL text.
package tags
