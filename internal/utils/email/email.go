package email

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/Dan9191/invest-service/internal/config"
	"github.com/Dan9191/invest-service/internal/models"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(e *email.Email) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	s := &Sender{cfg: cfg, logger: logger}
	s.send = s.sendSMTP
	return s
}

// Enabled reports whether an SMTP host is configured
func (s *Sender) Enabled() bool {
	return s.cfg.SMTPHost != ""
}

// InvestmentMatured notifies the owner that an investment reached its end date
func (s *Sender) InvestmentMatured(ctx context.Context, user *models.User, inv *models.UserInvestment) error {
	return s.deliver(ctx, s.maturedMessage(user, inv))
}

// EarlyWithdrawal notifies the owner that an investment was closed before maturity
func (s *Sender) EarlyWithdrawal(ctx context.Context, user *models.User, inv *models.UserInvestment) error {
	return s.deliver(ctx, s.earlyWithdrawalMessage(user, inv))
}

func (s *Sender) maturedMessage(user *models.User, inv *models.UserInvestment) *email.Email {
	e := s.newMessage(user, "Your investment has matured")
	body := greeting(user)
	body += fmt.Sprintf(
		"Your %s investment of R$ %s completed on %s.\n"+
			"R$ %s (earnings of R$ %s included) has been credited to your balance.\n",
		inv.PlanName, inv.Amount.StringFixed(2), inv.EndDate.Format(models.DateLayout),
		inv.CurrentValue.StringFixed(2), inv.CurrentValue.Sub(inv.Amount).StringFixed(2),
	)
	body += "\nBest regards,\nInvest Service"
	e.Text = []byte(body)
	return e
}

func (s *Sender) earlyWithdrawalMessage(user *models.User, inv *models.UserInvestment) *email.Email {
	e := s.newMessage(user, "Early withdrawal confirmation")
	body := greeting(user)
	body += fmt.Sprintf(
		"Your %s investment was withdrawn before its end date.\n"+
			"The principal of R$ %s has been returned to your balance.\n"+
			"Accrued earnings of R$ %s were forfeited.\n",
		inv.PlanName, inv.Amount.StringFixed(2), inv.CurrentValue.Sub(inv.Amount).StringFixed(2),
	)
	body += "\nBest regards,\nInvest Service"
	e.Text = []byte(body)
	return e
}

func (s *Sender) newMessage(user *models.User, subject string) *email.Email {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{user.Email}
	e.Subject = subject
	return e
}

func greeting(user *models.User) string {
	name := user.FirstName
	if name == "" {
		name = user.Email
	}
	return fmt.Sprintf("Dear %s,\n\n", name)
}

func (s *Sender) deliver(ctx context.Context, e *email.Email) error {
	if !s.Enabled() {
		s.logger.Debugf("SMTP not configured, skipping email to %v: %s", e.To, e.Subject)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.send(e); err != nil {
		s.logger.Errorf("Failed to send email to %v: %v", e.To, err)
		return fmt.Errorf("failed to send email: %w", err)
	}
	s.logger.Infof("Email sent to %v: %s", e.To, e.Subject)
	return nil
}

func (s *Sender) sendSMTP(e *email.Email) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	return e.Send(addr, auth)
}
