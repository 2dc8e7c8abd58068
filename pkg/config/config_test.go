package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
	assert.Equal(t, "2", cfg.NFE.Environment)
	assert.Equal(t, "reduced", cfg.NFE.Canonicalization)
	assert.Equal(t, 30, cfg.NFE.CertWarnDays)
	assert.Equal(t, "1", cfg.NFE.DefaultSeries)
	assert.Empty(t, cfg.NFE.RegionFallback)
	assert.Empty(t, cfg.DB.DatabaseURL)
	assert.Equal(t, 10, cfg.DB.MaxConns)
}

func TestFromViper_ValoresDeEntorno(t *testing.T) {
	v := viper.New()
	v.Set("NFE_CANONICALIZATION", "C14N")
	v.Set("NFE_CERT_WARN_DAYS", "15")
	v.Set("NFE_REGION_FALLBACK", "SP")
	v.Set("HTTP_PORT", 9090)
	v.Set("DATABASE_URL", "postgres://nfe@localhost/nfe")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, "c14n", cfg.NFE.Canonicalization)
	assert.Equal(t, 15, cfg.NFE.CertWarnDays)
	assert.Equal(t, "SP", cfg.NFE.RegionFallback)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, "postgres://nfe@localhost/nfe", cfg.DB.DatabaseURL)
}

func TestFromViper_CanonicalizacionInvalida(t *testing.T) {
	v := viper.New()
	v.Set("NFE_CANONICALIZATION", "exc-c14n")
	_, err := fromViper(v)
	assert.Error(t, err)
}

func TestGetInt_TextoNoNumericoUsaDefault(t *testing.T) {
	v := viper.New()
	v.Set("NFE_CERT_WARN_DAYS", "treinta")
	assert.Equal(t, 30, getInt(v, "NFE_CERT_WARN_DAYS", 30))
}
