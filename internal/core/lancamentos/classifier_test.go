package lancamentos

import (
	"testing"

	"lancamentos-service/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestExtrairTitulo(t *testing.T) {
	cases := []struct {
		historico string
		titulo    string
	}{
		{"PAGTO TITULO 123/4 | FORNECEDOR ALFA", "123/4"},
		{"PAGTO TITULO 998877", "998877"},
		{"TITULO NR 555 | BANCO BETA", "555"},
		{"pagto titulo 42 | fornecedor", "42"},
		{"titulo nr 7", "7"},
		{"TRANSFERENCIA ENTRE CONTAS", ""},
		{"", ""},
	}

	for _, c := range cases {
		assert.Equal(t, c.titulo, extrairTitulo(c.historico), "histórico: %q", c.historico)
	}
}

func TestExtrairContraparte(t *testing.T) {
	cases := []struct {
		historico   string
		contraparte string
	}{
		{"PAGTO TITULO 123 | FORNECEDOR ALFA", "FORNECEDOR ALFA"},
		{"PAGTO TITULO 123 | VLR TARIFAS | BANCO BETA ", "BANCO BETA"},
		{"PAGTO TITULO 123", ""},
		{"", ""},
	}

	for _, c := range cases {
		assert.Equal(t, c.contraparte, extrairContraparte(c.historico), "histórico: %q", c.historico)
	}
}

func TestClassificarTipo(t *testing.T) {
	cases := []struct {
		historico string
		tipo      domain.TipoLancamento
	}{
		{"PAGTO TITULO 123 | FORNECEDOR ALFA", domain.TipoPagamento},
		{"pagto titulo 123", domain.TipoPagamento},
		{"PAGTO TITULO 123 | VLR TARIFAS | BANCO", domain.TipoTarifa},
		{"VLR TARIFA COBRANCA", domain.TipoTarifa},
		{"COBRANCA DE TARIFA BANCARIA", domain.TipoTarifa},
		{"VLR DESCONTO PAGTO TITULO 9", domain.TipoDesconto},
		{"VALOR DESCONTO CONCEDIDO", domain.TipoDesconto},
		{"PAGTO TITULO 9 COM DESCONTO CONCEDIDO", domain.TipoDesconto},
		{"TRANSFERENCIA ENTRE CONTAS", domain.TipoNaoClassificado},
		{"DESCONTADO", domain.TipoNaoClassificado},
		{"", domain.TipoNaoClassificado},
	}

	for _, c := range cases {
		assert.Equal(t, c.tipo, classificarTipo(c.historico), "histórico: %q", c.historico)
	}
}

// Tarifas e descontos prevalecem sobre a detecção de pagamento quando ambos os
// marcadores aparecem no mesmo histórico.
func TestClassificarTipo_Precedencia(t *testing.T) {
	assert.Equal(t, domain.TipoTarifa, classificarTipo("PAGTO TITULO 1 | VLR TARIFA"))
	assert.Equal(t, domain.TipoDesconto, classificarTipo("PAGTO TITULO 1 | VLR DESCONTO | VLR TARIFA"))
}

func TestClassificarLancamentos_PreservaOrdem(t *testing.T) {
	lancamentos := []domain.Lancamento{
		{Detalhe: domain.Detalhe{Historico: "PAGTO TITULO 1 | A"}},
		{Detalhe: domain.Detalhe{Historico: "VLR TARIFAS"}},
		{Detalhe: domain.Detalhe{Historico: "SEM CLASSIFICACAO"}},
	}

	classificados := classificarLancamentos(lancamentos)

	assert.Len(t, classificados, 3)
	for i, lc := range classificados {
		assert.Equal(t, i, lc.Ordem)
	}
	assert.Equal(t, domain.TipoPagamento, classificados[0].Tipo)
	assert.Equal(t, "1", classificados[0].Titulo)
	assert.Equal(t, "A", classificados[0].Contraparte)
	assert.Equal(t, domain.TipoTarifa, classificados[1].Tipo)
	assert.Equal(t, domain.TipoNaoClassificado, classificados[2].Tipo)
}
