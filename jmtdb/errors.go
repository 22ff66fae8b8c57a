package jmtdb

import "errors"

var ErrRecordDecode = errors.New("jmtdb: stored record could not be decoded")
