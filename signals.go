package securebag

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for item lifecycle events. Secrets and plaintext values are never
// attached to any event.
var (
	SignalLoadStart      = capitan.NewSignal("securebag.load.start", "Item load beginning")
	SignalLoadComplete   = capitan.NewSignal("securebag.load.complete", "Item load finished")
	SignalSaveStart      = capitan.NewSignal("securebag.save.start", "Item save beginning")
	SignalSaveComplete   = capitan.NewSignal("securebag.save.complete", "Item save finished")
	SignalSecretResolved = capitan.NewSignal("securebag.secret.resolved", "Secret resolution finished")
	SignalCacheHit       = capitan.NewSignal("securebag.cache.hit", "Item served from cache")
	SignalCacheMiss      = capitan.NewSignal("securebag.cache.miss", "Item not cached, loading from store")
)

// Keys for typed event data.
var (
	KeyFormat         = capitan.NewStringKey("format")
	KeyCipher         = capitan.NewStringKey("cipher")
	KeyDataBag        = capitan.NewStringKey("data_bag")
	KeyItemID         = capitan.NewStringKey("item_id")
	KeyLocation       = capitan.NewStringKey("location")
	KeyDuration       = capitan.NewDurationKey("duration")
	KeyError          = capitan.NewErrorKey("error")
	KeyEncryptedCount = capitan.NewIntKey("encrypted_count")
	KeyDecryptedCount = capitan.NewIntKey("decrypted_count")
)

func emitLoadStart(ctx context.Context, hint Format) {
	capitan.Emit(ctx, SignalLoadStart,
		KeyFormat.Field(string(hint)),
	)
}

// emitLoadComplete emits an event when load finishes.
func emitLoadComplete(ctx context.Context, dataBag, id string, format Format, duration time.Duration, decrypted int, err error) {
	fields := []capitan.Field{
		KeyDataBag.Field(dataBag),
		KeyItemID.Field(id),
		KeyFormat.Field(string(format)),
		KeyDuration.Field(duration),
		KeyDecryptedCount.Field(decrypted),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalLoadComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalLoadComplete, fields...)
	}
}

func emitSaveStart(ctx context.Context, dataBag, id string, format Format) {
	capitan.Emit(ctx, SignalSaveStart,
		KeyDataBag.Field(dataBag),
		KeyItemID.Field(id),
		KeyFormat.Field(string(format)),
	)
}

// emitSaveComplete emits an event when save finishes.
func emitSaveComplete(ctx context.Context, dataBag, id string, format Format, cipher CipherName, duration time.Duration, encrypted int, err error) {
	fields := []capitan.Field{
		KeyDataBag.Field(dataBag),
		KeyItemID.Field(id),
		KeyFormat.Field(string(format)),
		KeyCipher.Field(string(cipher)),
		KeyDuration.Field(duration),
		KeyEncryptedCount.Field(encrypted),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalSaveComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalSaveComplete, fields...)
	}
}

// emitSecretResolved reports where a secret came from. Only the location is
// recorded.
func emitSecretResolved(ctx context.Context, location string, err error) {
	fields := []capitan.Field{
		KeyLocation.Field(location),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalSecretResolved, fields...)
	} else {
		capitan.Emit(ctx, SignalSecretResolved, fields...)
	}
}

func emitCacheHit(ctx context.Context, dataBag, id string) {
	capitan.Emit(ctx, SignalCacheHit,
		KeyDataBag.Field(dataBag),
		KeyItemID.Field(id),
	)
}

func emitCacheMiss(ctx context.Context, dataBag, id string) {
	capitan.Emit(ctx, SignalCacheMiss,
		KeyDataBag.Field(dataBag),
		KeyItemID.Field(id),
	)
}
