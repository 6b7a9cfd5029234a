package sqlite

import (
	"database/sql"
	"errors"

	"github.com/pzyt/crystal-healing/internal/domain"
)

// ─── Payment Operations ─────────────────────────────────────────────────────

// CreatePayment records a new pending order and fills in the generated id
// and timestamps.
func (db *DB) CreatePayment(p *domain.Payment) error {
	res, err := db.db.Exec(`
		INSERT INTO payments (user_id, amount, currency, status, method, out_trade_no, credits_added)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.UserID, p.Amount, p.Currency, string(p.Status), p.Method, p.OutTradeNo, p.CreditsAdded)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := db.paymentBy(`id = ?`, id)
	if err != nil {
		return err
	}
	*p = *stored
	return nil
}

// PaymentByID fetches one order scoped to its owner.
func (db *DB) PaymentByID(userID, id int64) (*domain.Payment, error) {
	p, err := db.paymentBy(`id = ?`, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, domain.ErrPaymentNotFound
	}
	return p, nil
}

// PaymentByOrderNo fetches an order by its merchant order number. Used by
// the asynchronous notification handler, which has no authenticated user.
func (db *DB) PaymentByOrderNo(outTradeNo string) (*domain.Payment, error) {
	return db.paymentBy(`out_trade_no = ?`, outTradeNo)
}

// ListPayments returns a user's orders, newest first.
func (db *DB) ListPayments(userID int64) ([]domain.Payment, error) {
	rows, err := db.db.Query(`
		SELECT id, user_id, amount, currency, status, method, out_trade_no, transaction_id, credits_added, created_at, updated_at
		FROM payments WHERE user_id = ? ORDER BY created_at DESC, id DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

// SettlePayment flips a pending order to success and grants its credits to
// the buyer, both in one transaction. The status flip is conditional on the
// order still being pending, so a replayed notification settles nothing
// twice: the second attempt returns domain.ErrPaymentSettled.
func (db *DB) SettlePayment(outTradeNo, transactionID string) (*domain.Payment, error) {
	tx, err := db.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE payments SET status = 'success', transaction_id = ?, updated_at = datetime('now')
		WHERE out_trade_no = ? AND status = 'pending'
	`, transactionID, outTradeNo)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish an unknown order from a replay.
		var status string
		err := tx.QueryRow(`SELECT status FROM payments WHERE out_trade_no = ?`, outTradeNo).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		if err != nil {
			return nil, err
		}
		return nil, domain.ErrPaymentSettled
	}

	var userID int64
	var creditsAdded int
	if err := tx.QueryRow(`
		SELECT user_id, credits_added FROM payments WHERE out_trade_no = ?
	`, outTradeNo).Scan(&userID, &creditsAdded); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(`
		UPDATE users SET credits = credits + ?, updated_at = datetime('now') WHERE id = ?
	`, creditsAdded, userID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return db.PaymentByOrderNo(outTradeNo)
}

// MarkPaymentFailed flips a pending order to failed. Settled orders are
// left untouched.
func (db *DB) MarkPaymentFailed(outTradeNo string) error {
	res, err := db.db.Exec(`
		UPDATE payments SET status = 'failed', updated_at = datetime('now')
		WHERE out_trade_no = ? AND status = 'pending'
	`, outTradeNo)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}

func (db *DB) paymentBy(where string, arg any) (*domain.Payment, error) {
	row := db.db.QueryRow(`
		SELECT id, user_id, amount, currency, status, method, out_trade_no, transaction_id, credits_added, created_at, updated_at
		FROM payments WHERE `+where, arg)
	p, err := scanPayment(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPaymentNotFound
	}
	return p, err
}

func scanPayment(scan func(dest ...any) error) (*domain.Payment, error) {
	var p domain.Payment
	var status, createdStr, updatedStr string
	err := scan(&p.ID, &p.UserID, &p.Amount, &p.Currency, &status, &p.Method,
		&p.OutTradeNo, &p.TransactionID, &p.CreditsAdded, &createdStr, &updatedStr)
	if err != nil {
		return nil, err
	}
	p.Status = domain.PaymentStatus(status)
	p.CreatedAt = parseTime(createdStr)
	p.UpdatedAt = parseTime(updatedStr)
	return &p, nil
}
