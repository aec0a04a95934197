// Package core imports all well-known RDF vocabularies.
package core

import (
	_ "github.com/quadkit/quadkit/voc/rdf"
	_ "github.com/quadkit/quadkit/voc/rdfs"
	_ "github.com/quadkit/quadkit/voc/schema"
	_ "github.com/quadkit/quadkit/voc/xsd"
)
