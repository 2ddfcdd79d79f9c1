// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package chrono

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNaiveDateTimeRoundTrip(t *testing.T) {
	dt, err := ParseNaiveDateTime("2021-03-04T05:06:07.250")
	require.NoError(t, err)
	require.Equal(t, "2021-03-04T05:06:07.250", FormatNaiveMillis(dt.EpochMillis()))
}

func TestUTCDateTimeRoundTrip(t *testing.T) {
	dt, err := ParseUTCDateTime("2021-03-04T05:06:07Z")
	require.NoError(t, err)
	require.Equal(t, "2021-03-04T05:06:07Z", FormatUTCMillis(dt.EpochMillis()))
}

func TestParseNaiveDateTimeRejectsGarbage(t *testing.T) {
	_, err := ParseNaiveDateTime("not-a-date")
	require.Error(t, err)
}
