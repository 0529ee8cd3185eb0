package retrieval

import "math"

// BM25 parameters: k1 controls term-frequency saturation, b controls
// document-length normalization.
const (
	bm25K1 = 1.5
	bm25B  = 0.75
)

// bm25Index holds the tokenized corpus statistics needed for BM25 scoring.
type bm25Index struct {
	docTermFreq []map[string]int // term frequencies per document
	docLengths  []int            // token count per document
	docFreq     map[string]int   // number of documents containing each term
	totalDocs   int
	avgDocLen   float64
}

// newBM25Index builds the index from pre-tokenized documents.
// Average document length is computed over non-empty documents only, so a
// corpus padded with empty docs does not skew length normalization.
func newBM25Index(tokenized [][]string) *bm25Index {
	idx := &bm25Index{
		docTermFreq: make([]map[string]int, len(tokenized)),
		docLengths:  make([]int, len(tokenized)),
		docFreq:     make(map[string]int),
		totalDocs:   len(tokenized),
	}

	totalLen := 0
	nonEmpty := 0
	for i, tokens := range tokenized {
		idx.docLengths[i] = len(tokens)
		if len(tokens) > 0 {
			totalLen += len(tokens)
			nonEmpty++
		}

		termFreq := make(map[string]int, len(tokens))
		for _, term := range tokens {
			termFreq[term]++
		}
		idx.docTermFreq[i] = termFreq

		for term := range termFreq {
			idx.docFreq[term]++
		}
	}

	if nonEmpty > 0 {
		idx.avgDocLen = float64(totalLen) / float64(nonEmpty)
	}

	return idx
}

// score computes the BM25 score of every document for the query tokens.
func (idx *bm25Index) score(queryTokens []string) []float64 {
	scores := make([]float64, idx.totalDocs)
	if idx.avgDocLen == 0 {
		return scores
	}

	for i := 0; i < idx.totalDocs; i++ {
		docLen := float64(idx.docLengths[i])
		var score float64

		for _, term := range queryTokens {
			tf, ok := idx.docTermFreq[i][term]
			if !ok {
				continue
			}

			df := float64(idx.docFreq[term])
			idf := math.Log((float64(idx.totalDocs)-df+0.5)/(df+0.5) + 1.0)

			numerator := float64(tf) * (bm25K1 + 1.0)
			denominator := float64(tf) + bm25K1*(1.0-bm25B+bm25B*(docLen/idx.avgDocLen))
			score += idf * (numerator / denominator)
		}

		scores[i] = score
	}

	return scores
}
