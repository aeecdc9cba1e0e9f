package lancamentos

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"lancamentos-service/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func contasCSV(t *testing.T, conteudo string) *bytes.Reader {
	t.Helper()
	encoded, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(conteudo))
	require.NoError(t, err)
	return bytes.NewReader(encoded)
}

const planoExemplo = `101;1.01.001;FORNECEDOR ALFA
202;1.01.002;TRANSPORTADORA BETA
303;2.05.001;BANCO GAMA S/A
404;2.05;BANCO GAMA S/A
`

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "BANCO GAMA S A", normalizeText("  Banco Gâma S/A "))
	assert.Equal(t, "FORNECEDOR ALFA", normalizeText("fornecedor    alfa"))
	assert.Equal(t, "", normalizeText("  ***  "))
}

func TestLerPlanoContas(t *testing.T) {
	contasMap, order, err := lerPlanoContas(contasCSV(t, planoExemplo))
	require.NoError(t, err)

	require.Len(t, order, 3)
	assert.Equal(t, []string{"FORNECEDOR ALFA", "TRANSPORTADORA BETA", "BANCO GAMA S A"}, order)

	entradas := contasMap["BANCO GAMA S A"]
	require.Len(t, entradas, 2)
}

func TestBuscarConta_ExataEAcentuada(t *testing.T) {
	contasMap, order, err := lerPlanoContas(contasCSV(t, planoExemplo))
	require.NoError(t, err)

	assert.Equal(t, "101", buscarConta("Fornecedor Álfa", contasMap, order, nil))
	// descrições repetidas: vence a classificação mais longa (mais específica)
	assert.Equal(t, "303", buscarConta("BANCO GAMA S/A", contasMap, order, nil))
}

func TestBuscarConta_Fuzzy(t *testing.T) {
	contasMap, order, err := lerPlanoContas(contasCSV(t, planoExemplo))
	require.NoError(t, err)

	assert.Equal(t, "101", buscarConta("FORNECEDOR ALFA LTDA", contasMap, order, nil))
}

func TestBuscarConta_FiltroPorClassificacao(t *testing.T) {
	contasMap, order, err := lerPlanoContas(contasCSV(t, planoExemplo))
	require.NoError(t, err)

	assert.Equal(t, "303", buscarConta("BANCO GAMA S/A", contasMap, order, []string{"2.05"}))
	// nada no plano sob o prefixo: não faz fuzzy fora do filtro
	assert.Equal(t, contaFallback, buscarConta("FORNECEDOR ALFA", contasMap, order, []string{"9."}))
}

func TestBuscarConta_DescricaoVazia(t *testing.T) {
	assert.Equal(t, contaFallback, buscarConta("", nil, nil, nil))
}

func TestGerarCSVComContas(t *testing.T) {
	contasMap, order, err := lerPlanoContas(contasCSV(t, planoExemplo))
	require.NoError(t, err)

	data := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	rows := []domain.OutputRow{
		{Data: data, ContaDebito: "1111111", Valor: decimal.RequireFromString("100.00"), Historico: "PAGTO TITULO 1 | FORNECEDOR ALFA", NovoLote: true},
		{Data: data, ContaDebito: "1111111", Valor: decimal.RequireFromString("10.00"), Historico: "SEM SEPARADOR DE SEGMENTO"},
	}

	output, err := gerarCSVComContas(rows, contasMap, order, nil)
	require.NoError(t, err)

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(output)
	require.NoError(t, err)
	linhas := strings.Split(strings.TrimSpace(string(decoded)), "\n")
	require.Len(t, linhas, 3)

	assert.Equal(t, "Data;Conta Débito;Conta Crédito;Valor;Histórico;Lote;Conta Contraparte", linhas[0])
	assert.True(t, strings.HasSuffix(linhas[1], ";101"), "linha: %q", linhas[1])
	assert.True(t, strings.HasSuffix(linhas[2], ";"), "sem contraparte a coluna fica vazia: %q", linhas[2])
}
