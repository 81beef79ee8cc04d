package database

import (
	"database/sql"
	"time"
)

func (db *PgCollabRepository) CreateAccount(params CreateAccountParams) (Account, error) {
	res := db.conn.QueryRow(
		"INSERT INTO accounts (username, email, password_hash, created_at) "+
			"VALUES ($1, $2, $3, $4) RETURNING id, username, email, created_at",
		params.Username,
		params.EmailAddress,
		params.PasswordHash,
		time.Now().UTC(),
	)

	var a Account
	err := res.Scan(
		&a.Id,
		&a.Username,
		&a.EmailAddress,
		&a.CreatedAt,
	)

	return a, err
}

func (db *PgCollabRepository) UpdateAccount(params UpdateAccountParams) (Account, error) {
	res := db.conn.QueryRow(
		"UPDATE accounts SET username = $2, password_hash = $3, updated_at = $4 "+
			"WHERE id = $1 RETURNING id, username, email, created_at, updated_at",
		params.AccountId,
		params.Username,
		params.PasswordHash,
		time.Now().UTC(),
	)

	var a Account
	err := res.Scan(
		&a.Id,
		&a.Username,
		&a.EmailAddress,
		&a.CreatedAt,
		&a.UpdatedAt,
	)

	return a, err
}

func (db *PgCollabRepository) GetAccountById(accountId int) (Account, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, created_at FROM accounts "+
			"WHERE id = $1 LIMIT 1",
		accountId,
	)

	var a Account
	err := row.Scan(
		&a.Id,
		&a.Username,
		&a.EmailAddress,
		&a.CreatedAt,
	)

	return a, err
}

func (db *PgCollabRepository) GetAccountByEmail(email string) (Account, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, password_hash, created_at FROM accounts "+
			"WHERE email = $1 LIMIT 1",
		email,
	)

	var a Account
	err := row.Scan(
		&a.Id,
		&a.Username,
		&a.EmailAddress,
		&a.PasswordHash,
		&a.CreatedAt,
	)

	return a, err
}

func (db *PgCollabRepository) CreateRoom(params CreateRoomParams) (Room, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return Room{}, err
	}
	defer tx.Rollback()

	row := tx.QueryRow(
		"INSERT INTO rooms (room_id, owner_id, created_at) "+
			"VALUES ($1, $2, $3) RETURNING id, room_id, owner_id, created_at",
		params.RoomId,
		params.OwnerId,
		time.Now().UTC(),
	)

	var room Room
	if err := row.Scan(
		&room.Id,
		&room.RoomId,
		&room.OwnerId,
		&room.CreatedAt,
	); err != nil {
		return Room{}, err
	}

	// the creator is always on the roster
	if _, err := tx.Exec(
		"INSERT INTO room_participants (room_id, account_id, joined_at) VALUES ($1, $2, $3)",
		room.Id,
		params.OwnerId,
		time.Now().UTC(),
	); err != nil {
		return Room{}, err
	}

	return room, tx.Commit()
}

func (db *PgCollabRepository) GetRoomByRoomId(roomId string) (Room, error) {
	row := db.conn.QueryRow(
		"SELECT id, room_id, owner_id, created_at FROM rooms "+
			"WHERE room_id = $1 LIMIT 1",
		roomId,
	)

	var room Room
	err := row.Scan(
		&room.Id,
		&room.RoomId,
		&room.OwnerId,
		&room.CreatedAt,
	)

	return room, err
}

func (db *PgCollabRepository) GetRoomWithParticipants(roomId string) (*Room, error) {
	query := `
		SELECT
				r.id,
				r.room_id,
				r.owner_id,
				r.created_at,
				p.account_id,
				a.username,
				p.joined_at
		FROM rooms r
		LEFT JOIN room_participants p ON p.room_id = r.id
		LEFT JOIN accounts a ON a.id = p.account_id
		WHERE r.room_id = $1
		ORDER BY p.joined_at`

	rows, err := db.conn.Query(query, roomId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var room *Room
	for rows.Next() {
		var (
			r         Room
			accountId sql.NullInt64
			username  sql.NullString
			joinedAt  sql.NullTime
		)

		if err := rows.Scan(
			&r.Id,
			&r.RoomId,
			&r.OwnerId,
			&r.CreatedAt,
			&accountId,
			&username,
			&joinedAt,
		); err != nil {
			return nil, err
		}

		if room == nil {
			room = &r
		}

		if accountId.Valid {
			room.Participants = append(room.Participants, Participant{
				AccountId: int(accountId.Int64),
				Username:  username.String,
				JoinedAt:  joinedAt.Time,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if room == nil {
		return nil, sql.ErrNoRows
	}

	return room, nil
}

func (db *PgCollabRepository) DeleteRoom(id int) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM room_participants WHERE room_id = $1", id); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM rooms WHERE id = $1", id); err != nil {
		return err
	}

	return tx.Commit()
}

func (db *PgCollabRepository) AddParticipant(roomDbId, accountId int) error {
	_, err := db.conn.Exec(
		"INSERT INTO room_participants (room_id, account_id, joined_at) VALUES ($1, $2, $3)",
		roomDbId,
		accountId,
		time.Now().UTC(),
	)

	return err
}

func (db *PgCollabRepository) IsParticipant(roomDbId, accountId int) bool {
	row := db.conn.QueryRow(
		"SELECT 1 FROM room_participants WHERE room_id = $1 AND account_id = $2 LIMIT 1",
		roomDbId,
		accountId,
	)

	var one int
	return row.Scan(&one) == nil
}

func (db *PgCollabRepository) GetCodeDocument(roomId string) (CodeDocument, error) {
	// room_id is not unique-indexed, take the most recently updated document
	row := db.conn.QueryRow(
		"SELECT id, room_id, code, language, updated_at FROM code_documents "+
			"WHERE room_id = $1 ORDER BY updated_at DESC LIMIT 1",
		roomId,
	)

	var doc CodeDocument
	err := row.Scan(
		&doc.Id,
		&doc.RoomId,
		&doc.Code,
		&doc.Language,
		&doc.UpdatedAt,
	)

	return doc, err
}

func (db *PgCollabRepository) CreateCodeDocument(params SaveCodeParams) (CodeDocument, error) {
	row := db.conn.QueryRow(
		"INSERT INTO code_documents (room_id, code, language, updated_at) "+
			"VALUES ($1, $2, $3, $4) RETURNING id, room_id, code, language, updated_at",
		params.RoomId,
		params.Code,
		params.Language,
		time.Now().UTC(),
	)

	var doc CodeDocument
	err := row.Scan(
		&doc.Id,
		&doc.RoomId,
		&doc.Code,
		&doc.Language,
		&doc.UpdatedAt,
	)

	return doc, err
}

func (db *PgCollabRepository) UpdateCodeDocument(params SaveCodeParams) (CodeDocument, error) {
	// last writer wins, no version check
	row := db.conn.QueryRow(
		"UPDATE code_documents SET code = $2, language = $3, updated_at = $4 "+
			"WHERE id = (SELECT id FROM code_documents WHERE room_id = $1 ORDER BY updated_at DESC LIMIT 1) "+
			"RETURNING id, room_id, code, language, updated_at",
		params.RoomId,
		params.Code,
		params.Language,
		time.Now().UTC(),
	)

	var doc CodeDocument
	err := row.Scan(
		&doc.Id,
		&doc.RoomId,
		&doc.Code,
		&doc.Language,
		&doc.UpdatedAt,
	)

	return doc, err
}

func (db *PgCollabRepository) DeleteCodeDocuments(roomId string) error {
	_, err := db.conn.Exec("DELETE FROM code_documents WHERE room_id = $1", roomId)
	return err
}

func (db *PgCollabRepository) ListCodeDocumentsForAccount(accountId int) ([]CodeDocument, error) {
	query := `
		SELECT c.id, c.room_id, c.code, c.language, c.updated_at
		FROM code_documents c
		WHERE c.room_id IN (
			SELECT r.room_id FROM rooms r
			JOIN room_participants p ON p.room_id = r.id
			WHERE p.account_id = $1
		)
		ORDER BY c.updated_at DESC`

	rows, err := db.conn.Query(query, accountId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []CodeDocument
	for rows.Next() {
		var doc CodeDocument
		if err := rows.Scan(
			&doc.Id,
			&doc.RoomId,
			&doc.Code,
			&doc.Language,
			&doc.UpdatedAt,
		); err != nil {
			return nil, err
		}

		docs = append(docs, doc)
	}

	return docs, rows.Err()
}
