package db

import (
	"context"
	"time"

	"github.com/deeply-app/deeply/internal/model"
)

// CreateKudo inserts a kudo.
func (s Queries) CreateKudo(ctx context.Context, k model.Kudo) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO kudos (id, sender_id, receiver_id, category, kind, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		k.ID, k.SenderID, k.ReceiverID, k.Category, k.Type, k.Message, encodeTime(k.CreatedAt))
	return err
}

// CountKudosSentSince counts kudos a person sent since the given instant.
// Backs the monthly limit.
func (s Queries) CountKudosSentSince(ctx context.Context, senderID string, since time.Time) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM kudos WHERE sender_id = $1 AND created_at >= $2`,
		senderID, encodeTime(since)).Scan(&n)
	return n, err
}

// ListKudos returns all kudos newest first with names, comments and
// reaction tallies attached.
func (s Queries) ListKudos(ctx context.Context) ([]model.Kudo, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT k.id, k.sender_id, k.receiver_id, k.category, k.kind, k.message, k.created_at,
			sender.name, receiver.name
		FROM kudos k
		JOIN persons sender ON sender.id = k.sender_id
		JOIN persons receiver ON receiver.id = k.receiver_id
		ORDER BY k.created_at DESC, k.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Kudo{}
	for rows.Next() {
		var k model.Kudo
		var created string
		if err := rows.Scan(&k.ID, &k.SenderID, &k.ReceiverID, &k.Category, &k.Type,
			&k.Message, &created, &k.SenderName, &k.ReceiverName); err != nil {
			return nil, err
		}
		k.CreatedAt = decodeTime(created)
		out = append(out, k)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if out[i].Comments, err = s.listKudoComments(ctx, out[i].ID); err != nil {
			return nil, err
		}
		if out[i].Reactions, err = s.tallyKudoReactions(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// CreateKudoComment adds a (possibly nested) comment to a kudo.
func (s Queries) CreateKudoComment(ctx context.Context, c model.KudoComment) error {
	var parent any
	if c.ParentID != nil {
		parent = *c.ParentID
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO kudo_comments (id, kudo_id, person_id, parent_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.KudoID, c.PersonID, parent, c.Content, encodeTime(c.CreatedAt))
	return err
}

func (s Queries) listKudoComments(ctx context.Context, kudoID string) ([]model.KudoComment, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT c.id, c.kudo_id, c.person_id, c.parent_id, c.content, c.created_at, p.name
		FROM kudo_comments c
		JOIN persons p ON p.id = c.person_id
		WHERE c.kudo_id = $1
		ORDER BY c.created_at, c.id`, kudoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.KudoComment{}
	for rows.Next() {
		var c model.KudoComment
		var created string
		if err := rows.Scan(&c.ID, &c.KudoID, &c.PersonID, &c.ParentID, &c.Content,
			&created, &c.AuthorName); err != nil {
			return nil, err
		}
		c.CreatedAt = decodeTime(created)
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetKudoReaction returns a person's reaction to a kudo, if any.
func (s Queries) GetKudoReaction(ctx context.Context, kudoID, personID string) (model.KudoReaction, error) {
	var r model.KudoReaction
	var created string
	err := s.q.QueryRowContext(ctx, `
		SELECT id, kudo_id, person_id, reaction_type, created_at
		FROM kudo_reactions WHERE kudo_id = $1 AND person_id = $2`,
		kudoID, personID).
		Scan(&r.ID, &r.KudoID, &r.PersonID, &r.Type, &created)
	if err != nil {
		return model.KudoReaction{}, notFound(err)
	}
	r.CreatedAt = decodeTime(created)
	return r, nil
}

// CreateKudoReaction inserts a reaction.
func (s Queries) CreateKudoReaction(ctx context.Context, r model.KudoReaction) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO kudo_reactions (id, kudo_id, person_id, reaction_type, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		r.ID, r.KudoID, r.PersonID, r.Type, encodeTime(r.CreatedAt))
	return err
}

// UpdateKudoReaction switches a reaction's type.
func (s Queries) UpdateKudoReaction(ctx context.Context, id, reactionType string) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE kudo_reactions SET reaction_type = $1 WHERE id = $2`, reactionType, id)
	return err
}

// DeleteKudoReaction removes a reaction.
func (s Queries) DeleteKudoReaction(ctx context.Context, id string) error {
	_, err := s.q.ExecContext(ctx, `DELETE FROM kudo_reactions WHERE id = $1`, id)
	return err
}

func (s Queries) tallyKudoReactions(ctx context.Context, kudoID string) (map[string]int, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT reaction_type, COUNT(*) FROM kudo_reactions
		WHERE kudo_id = $1 GROUP BY reaction_type`, kudoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, err
		}
		out[kind] = n
	}
	return out, rows.Err()
}

// CreateChannel inserts a channel and its member set.
func (s Queries) CreateChannel(ctx context.Context, ch model.Channel) error {
	private := 0
	if ch.Private {
		private = 1
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO channels (id, name, description, private, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		ch.ID, ch.Name, ch.Description, private, ch.CreatedBy, encodeTime(ch.CreatedAt))
	if err != nil {
		return err
	}
	return s.SetChannelMembers(ctx, ch.ID, personIDs(ch.Members))
}

// SetChannelMembers replaces a channel's member set.
func (s Queries) SetChannelMembers(ctx context.Context, channelID string, ids []string) error {
	if _, err := s.q.ExecContext(ctx,
		`DELETE FROM channel_members WHERE channel_id = $1`, channelID); err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := s.q.ExecContext(ctx, `
			INSERT INTO channel_members (channel_id, person_id) VALUES ($1, $2)
			ON CONFLICT (channel_id, person_id) DO NOTHING`, channelID, id); err != nil {
			return err
		}
	}
	return nil
}

// GetChannel returns a channel with its members.
func (s Queries) GetChannel(ctx context.Context, id string) (model.Channel, error) {
	var ch model.Channel
	var private int
	var created string
	err := s.q.QueryRowContext(ctx, `
		SELECT id, name, description, private, created_by, created_at
		FROM channels WHERE id = $1`, id).
		Scan(&ch.ID, &ch.Name, &ch.Description, &private, &ch.CreatedBy, &created)
	if err != nil {
		return model.Channel{}, notFound(err)
	}
	ch.Private = private != 0
	ch.CreatedAt = decodeTime(created)
	ch.Members, err = s.listChannelMembers(ctx, id)
	return ch, err
}

// GetChannelByName resolves a channel by its unique name.
func (s Queries) GetChannelByName(ctx context.Context, name string) (model.Channel, error) {
	var id string
	err := s.q.QueryRowContext(ctx,
		`SELECT id FROM channels WHERE name = $1`, name).Scan(&id)
	if err != nil {
		return model.Channel{}, notFound(err)
	}
	return s.GetChannel(ctx, id)
}

// ListChannelsFor returns the channels a person belongs to.
func (s Queries) ListChannelsFor(ctx context.Context, personID string) ([]model.Channel, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT c.id FROM channels c
		JOIN channel_members m ON m.channel_id = c.id
		WHERE m.person_id = $1
		ORDER BY c.name`, personID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := []model.Channel{}
	for _, id := range ids {
		ch, err := s.GetChannel(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, nil
}

func (s Queries) listChannelMembers(ctx context.Context, channelID string) ([]model.Person, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT `+personCols+` FROM persons
		WHERE id IN (SELECT person_id FROM channel_members WHERE channel_id = $1)
		ORDER BY name`, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Person{}
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		p.PasswordHash = ""
		out = append(out, p)
	}
	return out, rows.Err()
}

// IsChannelMember reports membership.
func (s Queries) IsChannelMember(ctx context.Context, channelID, personID string) (bool, error) {
	var n int
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM channel_members WHERE channel_id = $1 AND person_id = $2`,
		channelID, personID).Scan(&n)
	return n > 0, err
}

// UpdateChannel renames a channel and updates its description.
func (s Queries) UpdateChannel(ctx context.Context, ch model.Channel) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE channels SET name = $1, description = $2 WHERE id = $3`,
		ch.Name, ch.Description, ch.ID)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteChannel removes a channel; memberships and messages cascade.
func (s Queries) DeleteChannel(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM channels WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateMessage posts a message to a channel.
func (s Queries) CreateMessage(ctx context.Context, m model.Message) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO messages (id, channel_id, person_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.ChannelID, m.PersonID, m.Content, encodeTime(m.CreatedAt))
	return err
}

// ListMessages returns a channel's messages oldest first.
func (s Queries) ListMessages(ctx context.Context, channelID string) ([]model.Message, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT m.id, m.channel_id, m.person_id, m.content, m.created_at, p.name
		FROM messages m
		JOIN persons p ON p.id = m.person_id
		WHERE m.channel_id = $1
		ORDER BY m.created_at, m.id`, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Message{}
	for rows.Next() {
		var m model.Message
		var created string
		if err := rows.Scan(&m.ID, &m.ChannelID, &m.PersonID, &m.Content, &created,
			&m.AuthorName); err != nil {
			return nil, err
		}
		m.CreatedAt = decodeTime(created)
		out = append(out, m)
	}
	return out, rows.Err()
}

// CreateShare records a board share.
func (s Queries) CreateShare(ctx context.Context, sh model.Share) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO shares (id, email, message, created_at)
		VALUES ($1, $2, $3, $4)`,
		sh.ID, sh.Email, sh.Message, encodeTime(sh.CreatedAt))
	return err
}

// GetShare returns one share record.
func (s Queries) GetShare(ctx context.Context, id string) (model.Share, error) {
	var sh model.Share
	var created string
	err := s.q.QueryRowContext(ctx,
		`SELECT id, email, message, created_at FROM shares WHERE id = $1`, id).
		Scan(&sh.ID, &sh.Email, &sh.Message, &created)
	if err != nil {
		return model.Share{}, notFound(err)
	}
	sh.CreatedAt = decodeTime(created)
	return sh, nil
}

// ListShares returns share history newest first.
func (s Queries) ListShares(ctx context.Context) ([]model.Share, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, email, message, created_at FROM shares ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Share{}
	for rows.Next() {
		var sh model.Share
		var created string
		if err := rows.Scan(&sh.ID, &sh.Email, &sh.Message, &created); err != nil {
			return nil, err
		}
		sh.CreatedAt = decodeTime(created)
		out = append(out, sh)
	}
	return out, rows.Err()
}

// DeleteShare revokes a share record.
func (s Queries) DeleteShare(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM shares WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
