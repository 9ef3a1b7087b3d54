package mysql

// added_at is written once; re-adding a favorite only refreshes the snapshot.
const upsertFavoriteSQL = `
INSERT INTO favorites
  (museum_id, museum, added_at)
VALUES
  (?, ?, ?)
ON DUPLICATE KEY UPDATE
  museum     = VALUES(museum),
  updated_at = CURRENT_TIMESTAMP
`

// No-op update on conflict, so RowsAffected is 1 only for a fresh row.
const insertFavoriteSQL = `
INSERT INTO favorites
  (museum_id, museum, added_at)
VALUES
  (?, ?, ?)
ON DUPLICATE KEY UPDATE
  museum_id = museum_id
`

const deleteFavoriteSQL = `DELETE FROM favorites WHERE museum_id = ?`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const getFavoriteSQL = `
SELECT museum_id, museum, added_at
FROM favorites
WHERE museum_id = ?
`

// Most recently added first; museum_id breaks ties deterministically.
const listFavoritesSQL = `
SELECT museum_id, museum, added_at
FROM favorites
ORDER BY added_at DESC, museum_id
`
