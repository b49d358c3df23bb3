package event

import (
	"github.com/bridgecart/backend/internal/domain/commission"
	"github.com/bridgecart/backend/internal/domain/partner"
	"github.com/bridgecart/backend/internal/domain/payment"
	"github.com/bridgecart/backend/internal/domain/shared"
	"github.com/bridgecart/backend/internal/domain/trade"
	"github.com/bridgecart/backend/internal/domain/voucher"
	"github.com/bridgecart/backend/internal/domain/wallet"
)

// RegisterAllEvents registers all domain event types with the serializer.
// This is required for the OutboxProcessor to deserialize events from the
// outbox table. Events whose schema has changed are registered with the
// upgrade chain from their oldest stored version, so outbox entries written
// before a deploy still deserialize.
func RegisterAllEvents(serializer *VersionedSerializer) error {
	// Wallet domain events
	serializer.Register(wallet.EventTypeWalletOpened, &wallet.WalletOpenedEvent{})
	serializer.Register(wallet.EventTypeWalletTransactionApplied, &wallet.WalletTransactionAppliedEvent{})

	// Voucher domain events
	serializer.Register(voucher.EventTypeCodeCreated, &voucher.CodeCreatedEvent{})
	serializer.Register(voucher.EventTypeCodeRedeemed, &voucher.CodeRedeemedEvent{})
	serializer.Register(voucher.EventTypeCodeDisabled, &voucher.CodeDisabledEvent{})
	serializer.Register(voucher.EventTypeCodeDistributed, &voucher.CodeDistributedEvent{})
	serializer.Register(voucher.EventTypeCodeSold, &voucher.CodeSoldEvent{})
	serializer.Register(voucher.EventTypeDistributionReturned, &voucher.DistributionReturnedEvent{})

	// Payment domain events
	serializer.Register(payment.EventTypePaymentCreated, &payment.PaymentCreatedEvent{})
	serializer.Register(payment.EventTypePaymentPaid, &payment.PaymentPaidEvent{})
	serializer.Register(payment.EventTypePaymentFailed, &payment.PaymentFailedEvent{})
	serializer.Register(payment.EventTypePaymentRefunded, &payment.PaymentRefundedEvent{})

	// Commission domain events
	serializer.Register(commission.EventTypeCommissionCreated, &commission.CommissionCreatedEvent{})
	serializer.Register(commission.EventTypeCommissionPaid, &commission.CommissionPaidEvent{})

	// Partner domain events
	serializer.Register(partner.EventTypeAgentOrderCreated, &partner.AgentOrderCreatedEvent{})
	serializer.Register(partner.EventTypeAgentOrderPaid, &partner.AgentOrderPaidEvent{})

	// agent_order.submitted v1 predates the commission rate snapshot. Old
	// entries get a zero rate, which the submitted handler treats as "no
	// commission"; recalculation closes any gap for orders settled later.
	if err := serializer.RegisterVersioned(
		partner.EventTypeAgentOrderSubmitted,
		partner.SchemaVersionAgentOrderSubmitted,
		map[int]shared.DomainEvent{
			1: &partner.AgentOrderSubmittedEvent{},
			2: &partner.AgentOrderSubmittedEvent{},
		},
		agentOrderSubmittedV1ToV2(),
	); err != nil {
		return err
	}

	// Trade domain events
	serializer.Register(trade.EventTypeOrderCreated, &trade.OrderCreatedEvent{})
	serializer.Register(trade.EventTypeOrderDelivered, &trade.OrderDeliveredEvent{})

	return nil
}

func agentOrderSubmittedV1ToV2() EventUpgrader {
	return NewBaseEventUpgrader(1, 2, func(data map[string]any) (map[string]any, error) {
		if _, ok := data["commission_rate"]; !ok {
			data["commission_rate"] = "0"
		}
		return data, nil
	})
}
