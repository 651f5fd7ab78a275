package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ekkaluck/bangfai-ledger/internal/models"
)

// Repository provides data access methods
type Repository struct {
	db *sql.DB
}

// New creates a new Repository
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, err
	}

	// SQLite works best with a single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db}

	if err := repo.migrate(); err != nil {
		return nil, err
	}

	return repo, nil
}

// DB returns the underlying database connection (for transactions)
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close closes the database connection
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// migrate runs database migrations
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS venues (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL,
			aliases TEXT,
			group_id TEXT,
			room_link TEXT,
			payment_link TEXT,
			active BOOLEAN DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS rounds (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			venue_id INTEGER NOT NULL,
			firework_number INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'open',
			winners TEXT,
			total_bets INTEGER,
			total_revenue INTEGER,
			total_payout INTEGER,
			profit INTEGER,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			closed_at DATETIME,
			FOREIGN KEY (venue_id) REFERENCES venues(id)
		)`,
		`CREATE TABLE IF NOT EXISTS bets (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			round_id INTEGER NOT NULL,
			venue_id INTEGER NOT NULL,
			bettor TEXT NOT NULL,
			display_name TEXT,
			firework_id TEXT,
			bet_type TEXT NOT NULL,
			amount INTEGER NOT NULL,
			result TEXT NOT NULL DEFAULT 'pending',
			recorded_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (round_id) REFERENCES rounds(id),
			FOREIGN KEY (venue_id) REFERENCES venues(id)
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bets_round ON bets(round_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bets_bettor ON bets(bettor)`,
		`CREATE INDEX IF NOT EXISTS idx_rounds_venue_status ON rounds(venue_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_venues_group ON venues(group_id)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return err
		}
	}

	defaultSettings := map[string]string{
		"house_name": "",
		"operators":  "[]",
	}

	for key, value := range defaultSettings {
		_, err := r.db.Exec(`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`, key, value)
		if err != nil {
			return err
		}
	}

	return nil
}

// ==================== Venue Methods ====================

func scanVenue(row interface {
	Scan(dest ...interface{}) error
}) (*models.Venue, error) {
	var v models.Venue
	var aliases, groupID, roomLink, paymentLink sql.NullString
	err := row.Scan(&v.ID, &v.Name, &aliases, &groupID, &roomLink, &paymentLink, &v.Active, &v.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if aliases.Valid && aliases.String != "" {
		if err := json.Unmarshal([]byte(aliases.String), &v.Aliases); err != nil {
			v.Aliases = nil
		}
	}
	v.GroupID = groupID.String
	v.RoomLink = roomLink.String
	v.PaymentLink = paymentLink.String
	return &v, nil
}

const venueColumns = `id, name, aliases, group_id, room_link, payment_link, active, created_at`

// ListVenues returns all venues, active and inactive
func (r *Repository) ListVenues(ctx context.Context) ([]models.Venue, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+venueColumns+` FROM venues ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var venues []models.Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		venues = append(venues, *v)
	}
	return venues, rows.Err()
}

// GetVenue retrieves a venue by id
func (r *Repository) GetVenue(ctx context.Context, id int) (*models.Venue, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+venueColumns+` FROM venues WHERE id = ?`, id)
	return scanVenue(row)
}

// FindVenueByName resolves a venue by exact name or by one of its aliases.
// Aliases are stored as a JSON array, so the alias match happens here
// rather than in SQL; the registry is small.
func (r *Repository) FindVenueByName(ctx context.Context, nameOrAlias string) (*models.Venue, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+venueColumns+` FROM venues WHERE name = ?`, nameOrAlias)
	v, err := scanVenue(row)
	if err == nil {
		return v, nil
	}
	if err != ErrNotFound {
		return nil, err
	}

	venues, err := r.ListVenues(ctx)
	if err != nil {
		return nil, err
	}
	for i := range venues {
		for _, alias := range venues[i].Aliases {
			if strings.EqualFold(alias, nameOrAlias) {
				return &venues[i], nil
			}
		}
	}
	return nil, ErrNotFound
}

// FindVenueByGroup resolves the venue bound to a chat group
func (r *Repository) FindVenueByGroup(ctx context.Context, groupID string) (*models.Venue, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+venueColumns+` FROM venues WHERE group_id = ?`, groupID)
	return scanVenue(row)
}

// CreateVenue inserts a new venue and returns its id
func (r *Repository) CreateVenue(ctx context.Context, v models.Venue) (int64, error) {
	aliases, err := json.Marshal(v.Aliases)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO venues (name, aliases, group_id, room_link, payment_link, active) VALUES (?, ?, ?, ?, ?, ?)`,
		v.Name, string(aliases), v.GroupID, v.RoomLink, v.PaymentLink, v.Active)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateVenue updates a venue's mutable fields
func (r *Repository) UpdateVenue(ctx context.Context, id int, name string, aliases []string, groupID, roomLink, paymentLink string) error {
	aliasJSON, err := json.Marshal(aliases)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE venues SET name = ?, aliases = ?, group_id = ?, room_link = ?, payment_link = ? WHERE id = ?`,
		name, string(aliasJSON), groupID, roomLink, paymentLink, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetVenueActive flips the active flag. Venues are deactivated, never
// deleted, so historical bets keep a resolvable reference.
func (r *Repository) SetVenueActive(ctx context.Context, id int, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE venues SET active = ? WHERE id = ?`, active, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ==================== Round Methods ====================

const roundColumns = `id, venue_id, firework_number, status, winners, total_bets, total_revenue, total_payout, profit, created_at, closed_at`

func scanRound(row interface {
	Scan(dest ...interface{}) error
}) (*models.Round, error) {
	var rd models.Round
	var status string
	var winners sql.NullString
	var totalBets sql.NullInt64
	var totalRevenue, totalPayout, profit sql.NullInt64
	var closedAt sql.NullTime
	err := row.Scan(&rd.ID, &rd.VenueID, &rd.FireworkNumber, &status, &winners,
		&totalBets, &totalRevenue, &totalPayout, &profit, &rd.CreatedAt, &closedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rd.Status = models.RoundStatus(status)
	if winners.Valid && winners.String != "" {
		if err := json.Unmarshal([]byte(winners.String), &rd.Winners); err != nil {
			rd.Winners = nil
		}
	}
	if totalBets.Valid {
		n := int(totalBets.Int64)
		rd.TotalBets = &n
	}
	if totalRevenue.Valid {
		rd.TotalRevenue = &totalRevenue.Int64
	}
	if totalPayout.Valid {
		rd.TotalPayout = &totalPayout.Int64
	}
	if profit.Valid {
		rd.Profit = &profit.Int64
	}
	if closedAt.Valid {
		t := closedAt.Time
		rd.ClosedAt = &t
	}
	return &rd, nil
}

// GetRound retrieves a round by id
func (r *Repository) GetRound(ctx context.Context, id int) (*models.Round, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+roundColumns+` FROM rounds WHERE id = ?`, id)
	return scanRound(row)
}

// ListRounds returns rounds, optionally filtered by venue and status.
// venueID 0 and status "" mean no filter.
func (r *Repository) ListRounds(ctx context.Context, venueID int, status models.RoundStatus) ([]models.Round, error) {
	query := `SELECT ` + roundColumns + ` FROM rounds`
	var conds []string
	var args []interface{}
	if venueID != 0 {
		conds = append(conds, "venue_id = ?")
		args = append(args, venueID)
	}
	if status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(status))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rounds []models.Round
	for rows.Next() {
		rd, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, *rd)
	}
	return rounds, rows.Err()
}

// FindOpenRound returns the venue's currently open round
func (r *Repository) FindOpenRound(ctx context.Context, venueID int) (*models.Round, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+roundColumns+` FROM rounds WHERE venue_id = ? AND status = 'open'`, venueID)
	return scanRound(row)
}

// CreateRound opens a new round for a venue
func (r *Repository) CreateRound(ctx context.Context, venueID, fireworkNumber int) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO rounds (venue_id, firework_number, status) VALUES (?, ?, 'open')`,
		venueID, fireworkNumber)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// MarkRoundClosed flips an open round to closed and stamps closed_at.
// The status guard in the WHERE clause makes the transition conditional at
// the storage level as well as in the service.
func (r *Repository) MarkRoundClosed(ctx context.Context, id int, closedAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE rounds SET status = 'closed', closed_at = ? WHERE id = ? AND status = 'open'`,
		closedAt, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplySettlement writes bet results and the round's frozen aggregates in
// one transaction. If anything fails the round stays closed and every bet
// stays pending; no partially-applied settlement is observable.
func (r *Repository) ApplySettlement(ctx context.Context, roundID int, winners []string, s models.Settlement) error {
	winnerJSON, err := json.Marshal(winners)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE bets SET result = 'lose' WHERE round_id = ?`, roundID); err != nil {
		return err
	}

	if len(winners) > 0 {
		placeholders := strings.Repeat("?,", len(winners))
		placeholders = placeholders[:len(placeholders)-1]
		args := make([]interface{}, 0, len(winners)+1)
		args = append(args, roundID)
		for _, w := range winners {
			args = append(args, w)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE bets SET result = 'win' WHERE round_id = ? AND bettor IN (`+placeholders+`)`,
			args...); err != nil {
			return err
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE rounds SET status = 'settled', winners = ?, total_bets = ?, total_revenue = ?, total_payout = ?, profit = ?
		 WHERE id = ? AND status = 'closed'`,
		string(winnerJSON), s.TotalBets, s.TotalRevenue, s.TotalPayout, s.Profit, roundID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// ==================== Bet Methods ====================

const betColumns = `id, round_id, venue_id, bettor, display_name, firework_id, bet_type, amount, result, recorded_at`

func scanBet(row interface {
	Scan(dest ...interface{}) error
}) (*models.Bet, error) {
	var b models.Bet
	var displayName, fireworkID sql.NullString
	var betType, result string
	err := row.Scan(&b.ID, &b.RoundID, &b.VenueID, &b.Bettor, &displayName,
		&fireworkID, &betType, &b.Amount, &result, &b.RecordedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	b.DisplayName = displayName.String
	b.FireworkID = fireworkID.String
	b.BetType = models.BetType(betType)
	b.Result = models.BetResult(result)
	return &b, nil
}

// SaveBet appends a bet and returns the stored record with its generated
// id and timestamp
func (r *Repository) SaveBet(ctx context.Context, bet models.Bet) (*models.Bet, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO bets (round_id, venue_id, bettor, display_name, firework_id, bet_type, amount, result)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 'pending')`,
		bet.RoundID, bet.VenueID, bet.Bettor, bet.DisplayName, bet.FireworkID, string(bet.BetType), bet.Amount)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+betColumns+` FROM bets WHERE id = ?`, id)
	return scanBet(row)
}

// ListBetsByRound returns every bet recorded against a round
func (r *Repository) ListBetsByRound(ctx context.Context, roundID int) ([]models.Bet, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+betColumns+` FROM bets WHERE round_id = ? ORDER BY recorded_at, id`, roundID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bets []models.Bet
	for rows.Next() {
		b, err := scanBet(rows)
		if err != nil {
			return nil, err
		}
		bets = append(bets, *b)
	}
	return bets, rows.Err()
}

// AggregatesForRound returns the count and amount sum of a round's bets
func (r *Repository) AggregatesForRound(ctx context.Context, roundID int) (*models.RoundAggregates, error) {
	var agg models.RoundAggregates
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(amount), 0) FROM bets WHERE round_id = ?`, roundID).
		Scan(&agg.Count, &agg.Sum)
	if err != nil {
		return nil, err
	}
	return &agg, nil
}

// ==================== Settings Methods ====================

// GetSetting retrieves a setting value by key
func (r *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	return value, err
}

// SetSetting stores a setting value
func (r *Repository) SetSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	return err
}

// AllSettings returns every setting as a map
func (r *Repository) AllSettings(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		settings[k] = v
	}
	return settings, rows.Err()
}
