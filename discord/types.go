package discord

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

const (
	DiscordCreation = 1420070400000
)

var null = []byte("null")

// Snowflake is a discord identifier. It is sent as a string but may be
// received as either a string or a number.
type Snowflake int64

func (s Snowflake) IsNil() bool {
	return s == 0
}

func toInt64(b []byte) (int64, error) {
	if bytes.Equal(b, null) || len(b) == 0 {
		return 0, nil
	}

	if b[0] == '"' && len(b) >= 2 {
		b = b[1 : len(b)-1]
	}

	if len(b) == 0 {
		return 0, nil
	}

	i, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to unmarshal json: %w", err)
	}

	return i, nil
}

func (s *Snowflake) UnmarshalJSON(b []byte) error {
	i, err := toInt64(b)
	if err != nil {
		return err
	}

	*s = Snowflake(i)

	return nil
}

func (s Snowflake) MarshalJSON() ([]byte, error) {
	return int64ToStringBytes(int64(s)), nil
}

func (s Snowflake) String() string {
	return strconv.FormatInt(int64(s), 10)
}

// Time returns the creation time of the Snowflake.
func (s Snowflake) Time() time.Time {
	nsec := (int64(s) >> 22) + DiscordCreation

	return time.Unix(0, nsec*int64(time.Millisecond))
}

// ParseSnowflake parses a decimal snowflake.
func ParseSnowflake(value string) (Snowflake, error) {
	i, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid snowflake %q: %w", value, err)
	}

	return Snowflake(i), nil
}

// Int64 is an int64 that is sent as a string, such as permission bitsets.
type Int64 int64

func (in *Int64) UnmarshalJSON(b []byte) error {
	i, err := toInt64(b)
	if err != nil {
		return err
	}

	*in = Int64(i)

	return nil
}

func (in Int64) MarshalJSON() ([]byte, error) {
	return int64ToStringBytes(int64(in)), nil
}

func (in Int64) String() string {
	return strconv.FormatInt(int64(in), 10)
}

func int64ToStringBytes(s int64) []byte {
	buf := make([]byte, 0, 24)

	buf = append(buf, '"')
	buf = strconv.AppendInt(buf, s, 10)
	buf = append(buf, '"')

	return buf
}
