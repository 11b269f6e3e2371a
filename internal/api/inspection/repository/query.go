package inspectionRepository

const (
	queryInsertImageResult = `
INSERT INTO image_results (tracking_id, document, created_at)
VALUES (:tracking_id, :document, :created_at)`

	queryInsertVideoResult = `
INSERT INTO video_results (tracking_id, document, created_at)
VALUES (:tracking_id, :document, :created_at)`

	queryListImageResults = `
SELECT tracking_id, document, created_at
FROM image_results
ORDER BY created_at DESC
LIMIT :limit`

	queryListVideoResults = `
SELECT tracking_id, document, created_at
FROM video_results
ORDER BY created_at DESC
LIMIT :limit`
)
