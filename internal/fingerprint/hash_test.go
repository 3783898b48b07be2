package fingerprint

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hexDigestPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

func TestHash_Deterministic(t *testing.T) {
	set := Collect(fullFakeSource())

	first, err := Hash(set)
	require.NoError(t, err)
	second, err := Hash(set)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Regexp(t, hexDigestPattern, first.String())
}

func TestHash_DifferentSignalsDifferentDigest(t *testing.T) {
	base := Collect(fullFakeSource())

	changed := fullFakeSource()
	changed.tz = "America/Caracas"
	other := Collect(changed)

	d1, err := Hash(base)
	require.NoError(t, err)
	d2, err := Hash(other)
	require.NoError(t, err)

	assert.NotEqual(t, d1, d2)
}

func TestHash_DelimiterInFieldDoesNotCollide(t *testing.T) {
	// "a|b" + "c" и "a" + "b|c" не должны давать одинаковую конкатенацию
	a := SignalSet{Timezone: "a|b", Language: "c"}
	b := SignalSet{Timezone: "a", Language: "b|c"}

	d1, err := Hash(a)
	require.NoError(t, err)
	d2, err := Hash(b)
	require.NoError(t, err)

	assert.NotEqual(t, d1, d2)
}

func TestHash_EmptySetFails(t *testing.T) {
	_, err := Hash(SignalSet{})
	require.Error(t, err)
}

func TestHash_SentinelOnlySetSucceeds(t *testing.T) {
	// Устройство без единого доступного сигнала все равно получает
	// стабильный дайджест (все поля = sentinel)
	set := Collect(&fakeSource{failAll: true})

	digest, err := Hash(set)
	require.NoError(t, err)
	assert.Regexp(t, hexDigestPattern, digest.String())
	assert.False(t, digest.IsFallback())
}

func TestFallbackDigest(t *testing.T) {
	d1 := FallbackDigest()
	d2 := FallbackDigest()

	assert.True(t, d1.IsFallback())
	assert.True(t, d2.IsFallback())
	assert.NotEqual(t, d1, d2, "fallback digests must be random")
	assert.False(t, d1.Empty())
}

func TestDigest_Empty(t *testing.T) {
	assert.True(t, Digest("").Empty())
	assert.False(t, Digest("abc").Empty())
}

func TestCompute_Success(t *testing.T) {
	ctx := context.Background()

	digest := Compute(ctx, fullFakeSource())

	assert.False(t, digest.IsFallback())
	assert.Regexp(t, hexDigestPattern, digest.String())
}

type blockingSource struct {
	fakeSource
}

func (b *blockingSource) RenderRaster() (string, error) {
	time.Sleep(time.Second)
	return "data:image/png;base64,AAAA", nil
}

func TestCompute_TimeoutFallsBack(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	src := &blockingSource{fakeSource: *fullFakeSource()}
	digest := Compute(ctx, src)

	assert.True(t, digest.IsFallback(), "a hung computation must degrade, never hang the login")
}
