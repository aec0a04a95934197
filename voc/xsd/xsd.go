// Package xsd contains datatype IRI constants from the XML Schema
// Datatypes vocabulary, the way voc/rdf and voc/rdfs register the RDF and
// RDFS vocabularies.
package xsd

import "github.com/quadkit/quadkit/voc"

func init() {
	voc.RegisterPrefix(Prefix, NS)
}

const (
	NS     = `http://www.w3.org/2001/XMLSchema#`
	Prefix = `xsd:`
)

const (
	String   = NS + `string`
	Boolean  = NS + `boolean`
	Integer  = NS + `integer`
	Decimal  = NS + `decimal`
	Float    = NS + `float`
	Double   = NS + `double`
	DateTime = NS + `dateTime`
	Date     = NS + `date`
	Time     = NS + `time`
)
