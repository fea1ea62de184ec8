package session

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"io"

	"github.com/cosiris15/contract-review/pkg/models"
)

// maxGraphStateBytes mirrors _MAX_GRAPH_STATE_BYTES: the jsonb column is
// comfortable up to 5MiB before Postgres/row-size concerns kick in.
const maxGraphStateBytes = 5 * 1024 * 1024

type compressedEnvelope struct {
	Compressed bool   `json:"__compressed__"`
	Encoding   string `json:"encoding"`
	Payload    string `json:"payload"`
}

type skeletonState struct {
	Compressed         bool                   `json:"__compressed__"`
	Truncated          bool                   `json:"__truncated__"`
	Error              string                 `json:"error"`
	TaskID             string                 `json:"task_id"`
	CurrentClauseID    string                 `json:"current_clause_id"`
	CurrentClauseIndex int                    `json:"current_clause_index"`
	IsComplete         bool                   `json:"is_complete"`
	ReviewChecklist    []models.ChecklistItem `json:"review_checklist"`
	Documents          []models.TaskDocument  `json:"documents"`
	PendingDiffs       []models.Diff          `json:"pending_diffs"`
	UserDecisions      map[string]string      `json:"user_decisions"`
}

// packGraphState serializes state through four escalating tiers, each tried
// only once the previous one still overflows maxGraphStateBytes: plain JSON,
// JSON with the large ephemeral skill_context stripped, gzip+base64 of the
// pruned JSON, and finally a minimal lossy skeleton carrying only what the
// resume/listing endpoints need. Matches _pack_graph_state.
func packGraphState(state *models.GraphState) ([]byte, error) {
	if state == nil {
		state = &models.GraphState{}
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	if len(raw) <= maxGraphStateBytes {
		return raw, nil
	}

	pruned := *state
	pruned.CurrentSkillContext = nil
	prunedRaw, err := json.Marshal(&pruned)
	if err != nil {
		return nil, err
	}
	if len(prunedRaw) <= maxGraphStateBytes {
		return prunedRaw, nil
	}

	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(prunedRaw); err != nil {
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	envelope := compressedEnvelope{
		Compressed: true,
		Encoding:   "gzip+base64",
		Payload:    base64.StdEncoding.EncodeToString(buf.Bytes()),
	}
	envelopeRaw, err := json.Marshal(envelope)
	if err != nil {
		return nil, err
	}
	if len(envelopeRaw) <= maxGraphStateBytes {
		return envelopeRaw, nil
	}

	skeleton := skeletonState{
		Compressed:         false,
		Truncated:          true,
		Error:              "graph_state too large",
		TaskID:             state.TaskID,
		CurrentClauseID:    state.CurrentClauseID,
		CurrentClauseIndex: state.CurrentClauseIndex,
		IsComplete:         state.IsComplete,
		ReviewChecklist:    state.ReviewChecklist,
		Documents:          state.Documents,
		PendingDiffs:       state.PendingDiffs,
		UserDecisions:      state.UserDecisions,
	}
	return json.Marshal(&skeleton)
}

// unpackGraphState reverses packGraphState. A gzip+base64 envelope is
// decompressed back to a full state; a truncated skeleton only recovers the
// fields it preserved, leaving the rest zero-valued, matching
// _unpack_graph_state's lossy-on-truncation contract.
func unpackGraphState(raw []byte) (*models.GraphState, error) {
	if len(raw) == 0 {
		return &models.GraphState{}, nil
	}

	var probe struct {
		Compressed bool   `json:"__compressed__"`
		Truncated  bool   `json:"__truncated__"`
		Encoding   string `json:"encoding"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, err
	}

	if probe.Truncated {
		var skel skeletonState
		if err := json.Unmarshal(raw, &skel); err != nil {
			return nil, err
		}
		return &models.GraphState{
			TaskID:             skel.TaskID,
			CurrentClauseID:    skel.CurrentClauseID,
			CurrentClauseIndex: skel.CurrentClauseIndex,
			IsComplete:         skel.IsComplete,
			ReviewChecklist:    skel.ReviewChecklist,
			Documents:          skel.Documents,
			PendingDiffs:       skel.PendingDiffs,
			UserDecisions:      skel.UserDecisions,
			Error:              skel.Error,
		}, nil
	}

	if probe.Compressed {
		if probe.Encoding != "gzip+base64" {
			return &models.GraphState{}, nil
		}
		var envelope compressedEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return nil, err
		}
		compressed, err := base64.StdEncoding.DecodeString(envelope.Payload)
		if err != nil {
			return &models.GraphState{}, nil
		}
		gr, err := gzip.NewReader(bytes.NewReader(compressed))
		if err != nil {
			return &models.GraphState{}, nil
		}
		defer gr.Close()
		decompressed, err := io.ReadAll(gr)
		if err != nil {
			return &models.GraphState{}, nil
		}
		var state models.GraphState
		if err := json.Unmarshal(decompressed, &state); err != nil {
			return &models.GraphState{}, nil
		}
		return &state, nil
	}

	var state models.GraphState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, err
	}
	return &state, nil
}
