package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mkrogh/tekstfix/pkg/core"
)

func TestGenerateKey(t *testing.T) {
	g := NewKeyGenerator("")

	key1 := g.GenerateKey("gpt-4o", "Ret denne tekst", nil)
	key2 := g.GenerateKey("gpt-4o", "Ret denne tekst", nil)
	assert.Equal(t, key1, key2, "identical requests must produce identical keys")
	assert.True(t, strings.HasPrefix(key1, "tekstfix_gpt-4o_"))

	key3 := g.GenerateKey("gpt-4o", "Anden tekst", nil)
	assert.NotEqual(t, key1, key3)

	key4 := g.GenerateKey("gpt-4o", "Ret denne tekst", []core.GenerateOption{core.WithTemperature(0.9)})
	assert.NotEqual(t, key1, key4, "different generation parameters must produce different keys")

	key5 := g.GenerateKey("llama3:8b", "Ret denne tekst", nil)
	assert.NotEqual(t, key1, key5, "different models must produce different keys")
}

func TestGenerateJSONKeySeparateKeySpace(t *testing.T) {
	g := NewKeyGenerator("")

	plain := g.GenerateKey("gpt-4o", "Analyser teksten", nil)
	structured := g.GenerateJSONKey("gpt-4o", "Analyser teksten", nil)
	assert.NotEqual(t, plain, structured)
	assert.Contains(t, structured, "json_")
}

func TestKeyGeneratorCustomPrefix(t *testing.T) {
	g := NewKeyGenerator("myapp_")
	key := g.GenerateKey("gpt-4o", "tekst", nil)
	assert.True(t, strings.HasPrefix(key, "myapp_"))
}

func TestGenerateKeyStopSequenceOrder(t *testing.T) {
	g := NewKeyGenerator("")

	key1 := g.GenerateKey("gpt-4o", "tekst", []core.GenerateOption{core.WithStopSequences("A", "B")})
	key2 := g.GenerateKey("gpt-4o", "tekst", []core.GenerateOption{core.WithStopSequences("B", "A")})
	assert.Equal(t, key1, key2, "stop sequence order must not affect the key")
}
