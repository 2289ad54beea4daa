package chain

import (
	"strings"

	"github.com/Yates-Labs/medrag/internal/rag"
)

// DefaultDocumentSeparator separates stuffed chunks in the context slot.
const DefaultDocumentSeparator = "\n\n"

// StuffDocuments concatenates the content of every retrieved chunk verbatim,
// in retrieval order.
func StuffDocuments(docs []rag.Document, separator string) string {
	contents := make([]string, len(docs))
	for i, doc := range docs {
		contents[i] = doc.Content
	}
	return strings.Join(contents, separator)
}
