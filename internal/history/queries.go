package history

import (
	"database/sql"
	"fmt"

	"github.com/lucasnoah/docfactory/internal/evaluate"
)

// Record stores an evaluation result and its sequence verdicts, returning
// the evaluation row id.
func (d *DB) Record(result *evaluate.Result) (int64, error) {
	tx, err := d.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO evaluations (outputs_dir, run_count, sequence_count) VALUES (?, ?, ?)`,
		result.OutputsDir, result.RunCount, result.SequenceCount,
	)
	if err != nil {
		return 0, fmt.Errorf("insert evaluation: %w", err)
	}
	evalID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("evaluation id: %w", err)
	}

	for _, s := range result.SequenceSummaries {
		_, err := tx.Exec(
			`INSERT INTO sequence_results
				(evaluation_id, sequence_id, length, final_qa_status,
				 final_issue_count, best_issue_count, final_completion_pct,
				 oscillation, converged, reason)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			evalID, s.SequenceID, s.Length, s.FinalQAStatus,
			nullableInt(s.FinalQAIssueCount), nullableInt(s.BestQAIssueCount),
			s.FinalCompletionPct,
			boolToInt(s.OscillationDetected), boolToInt(s.Converged), s.ConvergenceReason,
		)
		if err != nil {
			return 0, fmt.Errorf("insert sequence result: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return evalID, nil
}

// Evaluation is one recorded evaluation pass.
type Evaluation struct {
	ID            int64  `json:"id"`
	OutputsDir    string `json:"outputs_dir"`
	RunCount      int    `json:"run_count"`
	SequenceCount int    `json:"sequence_count"`
	RecordedAt    string `json:"recorded_at"`
}

// ListEvaluations returns the most recent evaluations, newest first.
func (d *DB) ListEvaluations(limit int) ([]Evaluation, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.conn.Query(
		`SELECT id, outputs_dir, run_count, sequence_count, recorded_at
		 FROM evaluations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	defer rows.Close()

	var evals []Evaluation
	for rows.Next() {
		var e Evaluation
		if err := rows.Scan(&e.ID, &e.OutputsDir, &e.RunCount, &e.SequenceCount, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		evals = append(evals, e)
	}
	return evals, rows.Err()
}

// TrendPoint is one sequence verdict from one recorded evaluation.
type TrendPoint struct {
	EvaluationID    int64  `json:"evaluation_id"`
	RecordedAt      string `json:"recorded_at"`
	Length          int    `json:"length"`
	FinalQAStatus   string `json:"final_qa_status"`
	FinalIssueCount *int   `json:"final_issue_count"`
	Converged       bool   `json:"converged"`
	Reason          string `json:"reason"`
}

// SequenceTrend returns how a sequence's verdict evolved across recorded
// evaluations, oldest first.
func (d *DB) SequenceTrend(sequenceID string) ([]TrendPoint, error) {
	rows, err := d.conn.Query(
		`SELECT sr.evaluation_id, e.recorded_at, sr.length, sr.final_qa_status,
		        sr.final_issue_count, sr.converged, sr.reason
		 FROM sequence_results sr
		 JOIN evaluations e ON e.id = sr.evaluation_id
		 WHERE sr.sequence_id = ?
		 ORDER BY sr.evaluation_id ASC`, sequenceID)
	if err != nil {
		return nil, fmt.Errorf("query sequence trend: %w", err)
	}
	defer rows.Close()

	var points []TrendPoint
	for rows.Next() {
		var p TrendPoint
		var issueCount sql.NullInt64
		var converged int
		if err := rows.Scan(&p.EvaluationID, &p.RecordedAt, &p.Length, &p.FinalQAStatus,
			&issueCount, &converged, &p.Reason); err != nil {
			return nil, fmt.Errorf("scan trend point: %w", err)
		}
		if issueCount.Valid {
			n := int(issueCount.Int64)
			p.FinalIssueCount = &n
		}
		p.Converged = converged != 0
		points = append(points, p)
	}
	return points, rows.Err()
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
