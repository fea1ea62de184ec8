package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cosiris15/contract-review/pkg/models"
)

const threeClauseContract = `14.1 Scope of Works
The contractor shall perform the works described in Appendix A.

14.2 Limitation of Liability
Liability under this clause 14.1 is capped as set out in Clause 99.

17.6 Governing Law
This agreement is governed by the laws of England and Wales.
`

func TestParseText_SplitsThreeClauses(t *testing.T) {
	structure := ParseText("doc-1", threeClauseContract, models.ParserConfig{MaxDepth: 4})

	require.Len(t, structure.Clauses, 3)
	assert.Equal(t, "14.1", structure.Clauses[0].ClauseID)
	assert.Equal(t, "14.2", structure.Clauses[1].ClauseID)
	assert.Equal(t, "17.6", structure.Clauses[2].ClauseID)
	assert.Contains(t, structure.Clauses[0].Text, "Appendix A")
}

func TestParseText_CrossReferenceValidity(t *testing.T) {
	structure := ParseText("doc-1", threeClauseContract, models.ParserConfig{MaxDepth: 4})

	require.Len(t, structure.CrossReferences, 2)
	byTarget := make(map[string]models.CrossReference)
	for _, r := range structure.CrossReferences {
		byTarget[r.TargetClauseID] = r
	}
	assert.True(t, byTarget["14.1"].IsValid)
	assert.False(t, byTarget["99"].IsValid)
}
