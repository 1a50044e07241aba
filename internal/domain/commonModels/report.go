package commonModels

import "time"

type FileOutcome string

const (
	OutcomeIngested  FileOutcome = "ingested"
	OutcomeReplaced  FileOutcome = "replaced"
	OutcomeUnchanged FileOutcome = "unchanged"
	OutcomeSkipped   FileOutcome = "skipped"
	OutcomeFailed    FileOutcome = "failed"
)

type FileReport struct {
	Path     string      `json:"path"`
	Filename string      `json:"filename"`
	Hash     string      `json:"hash,omitempty"`
	Outcome  FileOutcome `json:"outcome"`
	Chunks   int         `json:"chunks"`
	Deleted  int         `json:"deleted"`
	Err      string      `json:"error,omitempty"`
}

type SyncReport struct {
	RunID      string       `json:"run_id"`
	Collection string       `json:"collection"`
	SourceDir  string       `json:"source_dir"`
	Created    bool         `json:"collection_created"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Files      []FileReport `json:"files"`
	Err        string       `json:"error,omitempty"`
}

func (r SyncReport) Count(outcome FileOutcome) int {
	n := 0
	for _, f := range r.Files {
		if f.Outcome == outcome {
			n++
		}
	}
	return n
}

// Writes is the number of store mutations (upserts plus deletes) the run performed.
func (r SyncReport) Writes() int {
	n := 0
	for _, f := range r.Files {
		if f.Outcome == OutcomeIngested || f.Outcome == OutcomeReplaced {
			n += f.Chunks + f.Deleted
		}
	}
	return n
}

type QueryResult struct {
	Queries []string `json:"queries"`
	Matches []Match  `json:"matches"`
}
