package dynamo

// DynamoDB attribute and index names used in expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	attrNotificationID = "notification_id"
	attrRecipientID    = "recipient_id"
	attrCreatedAt      = "created_at"
	attrClaimedAt      = "claimed_at"
	attrSentAt         = "sent_at"
	attrReadAt         = "read_at"
	attrPending        = "pending"
	attrToken          = "token"
	attrPlatform       = "platform"
	attrLastSeen       = "last_seen"
	attrUserID         = "user_id"
	attrBandID         = "band_id"
	attrEventID        = "event_id"

	// pendingIndex is sparse: only rows still carrying the pending
	// attribute appear in it, and MarkSent removes that attribute.
	pendingIndex        = "pending-created_at-index"
	recipientFeedIndex  = "recipient_id-created_at-index"
	tokenRecipientIndex = "recipient_id-index"
	bandEventsIndex     = "band_id-created_at-index"

	// pendingMarker is the single hash key value of pendingIndex.
	pendingMarker = "1"

	// maxTransactItems is the TransactWriteItems limit.
	maxTransactItems = 100
	// maxBatchGetKeys is the BatchGetItem limit.
	maxBatchGetKeys = 100
)
