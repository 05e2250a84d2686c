package tracker

import (
	"fmt"
	"time"

	"github.com/aqasim81/graph-migration-engine/internal/sparql"
)

// Vocabulary of the ledger records.
const (
	MigrationsNS = "http://mu.semte.ch/vocabularies/migrations/"
	CoreNS       = "http://mu.semte.ch/vocabularies/core/"
	xsdNS        = "http://www.w3.org/2001/XMLSchema#"
)

const prefixes = "PREFIX mig: <" + MigrationsNS + ">\n" +
	"PREFIX mu: <" + CoreNS + ">\n" +
	"PREFIX xsd: <" + xsdNS + ">\n"

func countQuery(graph string) string {
	return prefixes + fmt.Sprintf(`SELECT (COUNT(DISTINCT ?filename) AS ?count) WHERE {
  GRAPH %s {
    ?migration a mig:Migration ;
               mig:filename ?filename .
  }
}`, sparql.IRI(graph))
}

func filenamesQuery(graph string, limit, offset int) string {
	return prefixes + fmt.Sprintf(`SELECT DISTINCT ?filename WHERE {
  GRAPH %s {
    ?migration a mig:Migration ;
               mig:filename ?filename .
  }
} ORDER BY ?filename LIMIT %d OFFSET %d`, sparql.IRI(graph), limit, offset)
}

func recordsQuery(graph string, limit, offset int) string {
	return prefixes + fmt.Sprintf(`SELECT ?filename ?executedAt WHERE {
  GRAPH %s {
    ?migration a mig:Migration ;
               mig:filename ?filename .
    OPTIONAL { ?migration mig:executedAt ?executedAt . }
  }
} ORDER BY ?executedAt ?filename LIMIT %d OFFSET %d`, sparql.IRI(graph), limit, offset)
}

func existsQuery(graph, filename string) string {
	return prefixes + fmt.Sprintf(`ASK {
  GRAPH %s {
    ?migration a mig:Migration ;
               mig:filename %s .
  }
}`, sparql.IRI(graph), sparql.EscapeString(filename))
}

func insertRecordQuery(graph, uuid string, p RecordParams, at time.Time) string {
	return prefixes + fmt.Sprintf(`INSERT DATA {
  GRAPH %s {
    %s a mig:Migration ;
       mu:uuid %s ;
       mig:filename %s ;
       mig:executedAt %s^^xsd:dateTime .
  }
}`,
		sparql.IRI(graph),
		sparql.IRI(p.URI),
		sparql.EscapeString(uuid),
		sparql.EscapeString(p.Filename),
		sparql.EscapeString(at.UTC().Format(time.RFC3339)),
	)
}
