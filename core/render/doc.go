// Package render prints rows for operators: go-pretty tables and indented JSON.
package render
