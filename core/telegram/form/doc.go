// Package form implements explicit session tables for multi-step Telegram
// conversations. A session is keyed by chat and user, collects one value per
// field in definition order, and invokes its completion callback exactly once
// when the final field is accepted. Sessions are volatile: they live in
// process memory and are reaped once they exceed a fixed age.
package form
