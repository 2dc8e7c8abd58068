package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/nfe-api/internal/infrastructure/nfe/signer/signertest"
	"github.com/jhoicas/nfe-api/internal/interfaces/cli"
	pkgjwt "github.com/jhoicas/nfe-api/pkg/jwt"
)

const draftJSON = `{
  "issuer": {"tax_id": "11222333000181", "name": "EMPRESA TESTE LTDA", "state_registration": "123456789012",
             "address": {"street": "RUA A", "number": "1", "district": "CENTRO", "municipality_code": "3550308",
                         "municipality_name": "SAO PAULO", "uf": "SP"}},
  "recipient": {"tax_id": "52998224725", "name": "FULANO DE TAL"},
  "items": [{"code": "P1", "description": "PRODUTO", "ncm": "84713012", "cfop": "5102", "unit": "UN",
             "quantity": "1", "unit_value": "10", "total_value": "10",
             "icms": {"code": "41"}, "pis": {"code": "07"}, "cofins": {"code": "07"}}],
  "operation_nature": "VENDA",
  "tax_regime": "normal",
  "series": "1",
  "number": 7
}`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := cli.NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writePFX(t *testing.T, dir string) string {
	t.Helper()
	fx := signertest.New(t, signertest.Options{})
	path := filepath.Join(dir, "a1.pfx")
	require.NoError(t, os.WriteFile(path, fx.PFX(t, signertest.Password), 0o600))
	return path
}

func TestAccessKey(t *testing.T) {
	out, err := run(t, "access-key", "--uf", "SP", "--cnpj", "11222333000181", "--number", "42",
		"--issued-at", "2024-03-15T10:30:00-03:00", "--cnf", "48151623")
	require.NoError(t, err)
	assert.Equal(t, "35240311222333000181550010000000421481516238", strings.TrimSpace(out))
}

func TestAccessKey_UFDesconocida(t *testing.T) {
	_, err := run(t, "access-key", "--uf", "XX", "--cnpj", "11222333000181", "--number", "42")
	assert.Error(t, err)
}

func TestSignYVerify(t *testing.T) {
	dir := t.TempDir()
	pfx := writePFX(t, dir)
	draft := filepath.Join(dir, "nota.json")
	require.NoError(t, os.WriteFile(draft, []byte(draftJSON), 0o600))
	signed := filepath.Join(dir, "nota.xml")

	out, err := run(t, "sign", draft, "--cert", pfx, "--password", signertest.Password, "--out", signed)
	require.NoError(t, err)
	assert.Len(t, strings.TrimSpace(out), 44)

	xml, err := os.ReadFile(signed)
	require.NoError(t, err)
	assert.Contains(t, string(xml), "</infNFe><Signature")

	out, err = run(t, "verify", signed)
	require.NoError(t, err)
	assert.Contains(t, out, "firma válida")
}

func TestSign_SinCertificado(t *testing.T) {
	dir := t.TempDir()
	draft := filepath.Join(dir, "nota.json")
	require.NoError(t, os.WriteFile(draft, []byte(draftJSON), 0o600))

	_, err := run(t, "sign", draft)
	assert.Error(t, err)
}

func TestVerify_DocumentoAlterado(t *testing.T) {
	dir := t.TempDir()
	pfx := writePFX(t, dir)
	draft := filepath.Join(dir, "nota.json")
	require.NoError(t, os.WriteFile(draft, []byte(draftJSON), 0o600))

	xml, err := run(t, "sign", draft, "--cert", pfx, "--password", signertest.Password)
	require.NoError(t, err)
	tampered := strings.Replace(xml, "<natOp>VENDA</natOp>", "<natOp>DOACAO</natOp>", 1)
	require.NotEqual(t, xml, tampered)
	path := filepath.Join(dir, "alterada.xml")
	require.NoError(t, os.WriteFile(path, []byte(tampered), 0o600))

	_, err = run(t, "verify", path)
	assert.Error(t, err)
}

func TestCert(t *testing.T) {
	pfx := writePFX(t, t.TempDir())
	out, err := run(t, "cert", pfx, "--password", signertest.Password)
	require.NoError(t, err)
	assert.Contains(t, out, signertest.CNPJ)
	assert.Contains(t, out, "dias_restantes:")
}

func TestCert_ContrasenaIncorrecta(t *testing.T) {
	pfx := writePFX(t, t.TempDir())
	_, err := run(t, "cert", pfx, "--password", "errada")
	assert.Error(t, err)
}

func TestToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "secreto-cli")
	out, err := run(t, "token", "--cnpj", "11.222.333/0001-81", "--role", "viewer", "--user", "ops")
	require.NoError(t, err)

	claims, err := pkgjwt.Parse("secreto-cli", strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "11222333000181", claims.CNPJ)
	assert.Equal(t, pkgjwt.RoleViewer, claims.Role)
	assert.Equal(t, "ops", claims.UserID)
}

func TestToken_SinSecreto(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	_, err := run(t, "token")
	assert.Error(t, err)
}

func TestToken_RolInvalido(t *testing.T) {
	t.Setenv("JWT_SECRET", "secreto-cli")
	_, err := run(t, "token", "--role", "admin")
	assert.Error(t, err)
}
