package streamapi

// StreamPermissions are the sender-granted permissions fixed at stream
// creation. The *At fields gate each permission until a unix time; zero
// means usable immediately.
type StreamPermissions struct {
	SenderCanCancel   bool
	SenderCanCancelAt uint64

	SenderCanChangeSender   bool
	SenderCanChangeSenderAt uint64

	SenderCanPause   bool
	SenderCanPauseAt uint64

	RecipientCanResumePauseBySender   bool
	RecipientCanResumePauseBySenderAt uint64

	AnyoneCanWithdrawForRecipient   bool
	AnyoneCanWithdrawForRecipientAt uint64
}

// Normalized zeroes the activation time of every disabled permission, so a
// permission that can never be used carries no stray timestamp on-chain.
func (p StreamPermissions) Normalized() StreamPermissions {
	if !p.SenderCanCancel {
		p.SenderCanCancelAt = 0
	}
	if !p.SenderCanChangeSender {
		p.SenderCanChangeSenderAt = 0
	}
	if !p.SenderCanPause {
		p.SenderCanPauseAt = 0
	}
	if !p.RecipientCanResumePauseBySender {
		p.RecipientCanResumePauseBySenderAt = 0
	}
	if !p.AnyoneCanWithdrawForRecipient {
		p.AnyoneCanWithdrawForRecipientAt = 0
	}
	return p
}

// PrepaidPermissions narrows permissions to the ones a prepaid stream can
// carry. Pause and change-sender make no sense without ongoing topups.
type PrepaidPermissions struct {
	SenderCanCancel   bool
	SenderCanCancelAt uint64

	AnyoneCanWithdrawForRecipient   bool
	AnyoneCanWithdrawForRecipientAt uint64
}

// Normalized zeroes the activation time of every disabled permission.
func (p PrepaidPermissions) Normalized() PrepaidPermissions {
	if !p.SenderCanCancel {
		p.SenderCanCancelAt = 0
	}
	if !p.AnyoneCanWithdrawForRecipient {
		p.AnyoneCanWithdrawForRecipientAt = 0
	}
	return p
}
