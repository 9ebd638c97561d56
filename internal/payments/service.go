package payments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/sagaragarwal94/qr-crypto/internal/identity"
	"github.com/sagaragarwal94/qr-crypto/internal/ledger"
	"github.com/sagaragarwal94/qr-crypto/internal/notification"
	"github.com/sagaragarwal94/qr-crypto/internal/validation"
)

// UserFinder resolves the redeeming user's phone number.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (identity.User, error)
}

// TransferInput is the submitted give_money form.
type TransferInput struct {
	Phone  string `form:"phone_number" validate:"required,len=10,digits"`
	Amount string `form:"credits_transfer" validate:"required,max=10,digits"`
}

// Transfer is a debited transfer waiting to be redeemed.
type Transfer struct {
	Payload string
	Phone   string
	Amount  int64
	Image   []byte
	// Balance is the sender's balance after the debit.
	Balance int64
}

// Redemption is the outcome of crediting a scanned transfer.
type Redemption struct {
	Payload Payload
	// Balance is the redeemer's balance after the credit.
	Balance int64
}

// Service moves credits between wallets through QR transfer codes.
type Service struct {
	ledger   ledger.Ledger
	codec    *Codec
	registry Registry
	users    UserFinder
	notifier notification.Notifier
	validate *validation.Validator
	logger   *slog.Logger
}

// NewService constructs a payment service.
func NewService(l ledger.Ledger, codec *Codec, registry Registry, users UserFinder, notifier notification.Notifier, validate *validation.Validator, logger *slog.Logger) *Service {
	return &Service{
		ledger:   l,
		codec:    codec,
		registry: registry,
		users:    users,
		notifier: notifier,
		validate: validate,
		logger:   logger,
	}
}

// Initiate debits senderID and returns the transfer code for phone. On any
// failure no code is returned and the sender's balance is unchanged.
func (s *Service) Initiate(ctx context.Context, senderID, phone, amountText string) (Transfer, error) {
	in := TransferInput{Phone: strings.TrimSpace(phone), Amount: strings.TrimSpace(amountText)}
	if err := s.validate.Struct(in); err != nil {
		return Transfer{}, err
	}
	amount, err := ledger.ParseAmount(in.Amount)
	if err != nil {
		return Transfer{}, validation.Errors{"credits_transfer": "credits_transfer must be a positive whole number"}
	}

	payload, img, err := s.codec.Encode(in.Phone, amount)
	if err != nil {
		return Transfer{}, err
	}

	balance, err := s.ledger.Debit(ctx, senderID, amount)
	if err != nil {
		return Transfer{}, err
	}
	if err := s.registry.Issue(ctx, payload); err != nil {
		if _, cerr := s.ledger.Credit(ctx, senderID, amount); cerr != nil {
			s.logger.Error("refund after failed issue",
				slog.String("user_id", senderID),
				slog.Int64("amount", amount),
				slog.Any("error", cerr),
			)
			return Transfer{}, errors.Join(err, cerr)
		}
		return Transfer{}, err
	}

	s.logger.Info("transfer issued",
		slog.String("user_id", senderID),
		slog.String("recipient_phone", in.Phone),
		slog.Int64("amount", amount),
		slog.Int64("balance", balance),
	)
	s.notify(ctx, notification.Message{
		Kind:        notification.KindTransferIssued,
		Destination: in.Phone,
		Body:        fmt.Sprintf("%d credits are waiting for you", amount),
	})

	return Transfer{Payload: payload, Phone: in.Phone, Amount: amount, Image: img, Balance: balance}, nil
}

// Render returns the PNG for an issued payload.
func (s *Service) Render(payload string) (Payload, []byte, error) {
	p, err := DecodePayload(payload)
	if err != nil {
		return Payload{}, nil, err
	}
	img, err := s.codec.Image(p.String())
	if err != nil {
		return Payload{}, nil, err
	}
	return p, img, nil
}

// Redeem decodes a scanned transfer code and credits its amount to userID.
// Each issued code can be redeemed once.
func (s *Service) Redeem(ctx context.Context, userID string, image io.Reader) (Redemption, error) {
	p, err := s.codec.Decode(image)
	if err != nil {
		return Redemption{}, err
	}
	payload := p.String()
	if err := s.registry.Consume(ctx, payload); err != nil {
		return Redemption{}, err
	}

	balance, err := s.ledger.Credit(ctx, userID, p.Amount)
	if err != nil {
		if rerr := s.registry.Issue(ctx, payload); rerr != nil {
			s.logger.Error("reissue after failed credit",
				slog.String("user_id", userID),
				slog.Int64("amount", p.Amount),
				slog.Any("error", rerr),
			)
			return Redemption{}, errors.Join(err, rerr)
		}
		return Redemption{}, err
	}

	attrs := []any{
		slog.String("user_id", userID),
		slog.String("payload_phone", p.Phone),
		slog.Int64("amount", p.Amount),
		slog.Int64("balance", balance),
	}
	if user, err := s.users.FindByID(ctx, userID); err != nil {
		s.logger.Warn("redeemer lookup failed", slog.String("user_id", userID), slog.Any("error", err))
	} else if user.Phone != p.Phone {
		s.logger.Warn("transfer redeemed by a different phone owner", append(attrs, slog.String("redeemer_phone", user.Phone))...)
	}
	s.logger.Info("transfer redeemed", attrs...)
	s.notify(ctx, notification.Message{
		Kind:        notification.KindTransferRedeemed,
		Destination: userID,
		Body:        fmt.Sprintf("You received %d credits", p.Amount),
	})

	return Redemption{Payload: p, Balance: balance}, nil
}

// Balance returns the wallet balance of userID.
func (s *Service) Balance(ctx context.Context, userID string) (int64, error) {
	return s.ledger.Balance(ctx, userID)
}

func (s *Service) notify(ctx context.Context, msg notification.Message) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.Warn("notification failed", slog.String("kind", msg.Kind), slog.Any("error", err))
	}
}
