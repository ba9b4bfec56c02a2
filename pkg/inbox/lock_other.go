//go:build !unix

package inbox

import (
	"context"
	"errors"
)

type fileLock struct{}

func acquire(context.Context, string) (*fileLock, error) {
	return nil, errors.New("inbox locking requires flock(2)")
}

func (*fileLock) release() error { return nil }
