// Package dynamo provides shared DynamoDB constants and utilities.
package dynamo

const (
	// Primary key attributes.
	AttrPK = "pk"
	AttrSK = "sk"

	// Key prefixes.
	PrefixUser = "USER#"

	// LSI sort key attributes.
	AttrLSI1SK = "lsi1sk"

	// Index names.
	IndexLSI1 = "lsi1"
)
