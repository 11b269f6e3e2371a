package inspectionRepository

import (
	"RoadVision/internal/entity"
	contextPkg "RoadVision/pkg/context"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	jsoniter "github.com/json-iterator/go"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

type resultDB struct {
	TrackingID sql.NullString `db:"tracking_id"`
	Document   []byte         `db:"document"`
	CreatedAt  sql.NullTime   `db:"created_at"`
}

// StoredResult is one persisted detection document as read back from the
// store. Document holds the exact JSON inserted by the worker.
type StoredResult struct {
	TrackingID string          `json:"trackingID"`
	Document   json.RawMessage `json:"document"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (r *resultRepository) InsertImageResult(c context.Context, result entity.ImageResult) error {
	document, err := jsoniter.Marshal(result)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"job_id": contextPkg.GetJobID(c),
			"error":  err.Error(),
		}).Error("Failed to marshal image result document")
		return err
	}

	return r.insert(c, queryInsertImageResult, result.TrackingID, document)
}

func (r *resultRepository) InsertVideoResult(c context.Context, result entity.VideoResult) error {
	document, err := jsoniter.Marshal(result)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"job_id": contextPkg.GetJobID(c),
			"error":  err.Error(),
		}).Error("Failed to marshal video result document")
		return err
	}

	return r.insert(c, queryInsertVideoResult, result.TrackingID, document)
}

// insert is fire-and-forget single-document persistence. Duplicate tracking
// ids are allowed; redelivered jobs simply produce another record.
func (r *resultRepository) insert(c context.Context, namedQuery, trackingID string, document []byte) error {
	jobID := contextPkg.GetJobID(c)
	argsKV := map[string]interface{}{
		"tracking_id": trackingID,
		"document":    document,
		"created_at":  time.Now(),
	}

	query, args, err := sqlx.Named(namedQuery, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"job_id": jobID,
			"error":  err.Error(),
		}).Error("Failed to build SQL query for result insert")
		return err
	}
	query = r.q.Rebind(query)

	_, err = r.q.ExecContext(c, query, args...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			r.log.WithFields(logrus.Fields{
				"job_id":      jobID,
				"tracking_id": trackingID,
				"pq_code":     string(pqErr.Code),
				"error":       err.Error(),
			}).Error("Database error when inserting result")
			return err
		}

		r.log.WithFields(logrus.Fields{
			"job_id":      jobID,
			"tracking_id": trackingID,
			"error":       err.Error(),
		}).Error("Database error when inserting result")

		return err
	}

	return nil
}

func (r *resultRepository) ListImageResults(c context.Context, limit int) ([]StoredResult, error) {
	return r.list(c, queryListImageResults, limit)
}

func (r *resultRepository) ListVideoResults(c context.Context, limit int) ([]StoredResult, error) {
	return r.list(c, queryListVideoResults, limit)
}

func (r *resultRepository) list(c context.Context, namedQuery string, limit int) ([]StoredResult, error) {
	jobID := contextPkg.GetJobID(c)

	query, args, err := sqlx.Named(namedQuery, map[string]interface{}{"limit": limit})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"job_id": jobID,
			"error":  err.Error(),
		}).Error("Failed to build SQL query for result listing")
		return nil, err
	}
	query = r.q.Rebind(query)

	rows, err := r.q.QueryxContext(c, query, args...)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"job_id": jobID,
			"error":  err.Error(),
		}).Error("Database error when listing results")
		return nil, err
	}
	defer rows.Close()

	results := make([]StoredResult, 0)
	for rows.Next() {
		var row resultDB
		if err := rows.StructScan(&row); err != nil {
			r.log.WithFields(logrus.Fields{
				"job_id": jobID,
				"error":  err.Error(),
			}).Error("Failed to scan result row")
			return nil, err
		}

		results = append(results, StoredResult{
			TrackingID: row.TrackingID.String,
			Document:   json.RawMessage(row.Document),
			CreatedAt:  row.CreatedAt.Time,
		})
	}

	return results, rows.Err()
}
