package email

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/Dan9191/invest-service/internal/config"
	"github.com/Dan9191/invest-service/internal/models"
	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSender(host string) (*Sender, *[]*email.Email) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	s := NewSender(&config.Config{SMTPHost: host, SMTPPort: "587", SenderEmail: "no-reply@invest.local"}, logger)
	var sent []*email.Email
	s.send = func(e *email.Email) error {
		sent = append(sent, e)
		return nil
	}
	return s, &sent
}

func testInvestment() *models.UserInvestment {
	return &models.UserInvestment{
		PlanName:     "Starter",
		Amount:       decimal.NewFromInt(1000),
		CurrentValue: decimal.RequireFromString("1250.40"),
		EndDate:      time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestInvestmentMaturedMessage(t *testing.T) {
	s, sent := testSender("smtp.example.com")
	user := &models.User{Email: "ana@example.com", FirstName: "Ana"}

	require.NoError(t, s.InvestmentMatured(context.Background(), user, testInvestment()))
	require.Len(t, *sent, 1)

	msg := (*sent)[0]
	assert.Equal(t, []string{"ana@example.com"}, msg.To)
	assert.Equal(t, "no-reply@invest.local", msg.From)
	body := string(msg.Text)
	assert.Contains(t, body, "Dear Ana")
	assert.Contains(t, body, "R$ 1250.40")
	assert.Contains(t, body, "R$ 250.40")
	assert.Contains(t, body, "2026-04-01")
}

func TestEarlyWithdrawalMessage(t *testing.T) {
	s, sent := testSender("smtp.example.com")
	user := &models.User{Email: "ana@example.com"}

	require.NoError(t, s.EarlyWithdrawal(context.Background(), user, testInvestment()))
	require.Len(t, *sent, 1)
	body := string((*sent)[0].Text)
	assert.Contains(t, body, "Dear ana@example.com")
	assert.Contains(t, body, "principal of R$ 1000.00")
	assert.Contains(t, body, "R$ 250.40 were forfeited")
}

func TestSenderSkipsWithoutSMTPHost(t *testing.T) {
	s, sent := testSender("")
	require.NoError(t, s.InvestmentMatured(context.Background(), &models.User{Email: "a@b.c"}, testInvestment()))
	assert.Empty(t, *sent)
}

func TestSenderWrapsSendError(t *testing.T) {
	s, _ := testSender("smtp.example.com")
	s.send = func(*email.Email) error { return errors.New("connection refused") }

	err := s.EarlyWithdrawal(context.Background(), &models.User{Email: "a@b.c"}, testInvestment())
	assert.ErrorContains(t, err, "failed to send email")
}
