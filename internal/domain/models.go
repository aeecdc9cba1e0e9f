// package domain/models.go
package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TipoLancamento classifica o papel semântico de um lançamento dentro do grupo.
type TipoLancamento string

// Constantes de classificação do histórico.
const (
	TipoPagamento       TipoLancamento = "PAGAMENTO"
	TipoTarifa          TipoLancamento = "TARIFA"
	TipoDesconto        TipoLancamento = "DESCONTO"
	TipoNaoClassificado TipoLancamento = "NAO_CLASSIFICADO"
)

// Cabecalho representa o registro 0100 que identifica o arquivo exportado.
type Cabecalho struct {
	Identificador string    `json:"identificador"`
	Codigo        string    `json:"codigo"`
	DataInicio    time.Time `json:"data_inicio"`
	DataFim       time.Time `json:"data_fim"`
	Indicador     string    `json:"indicador"`
	Versao        string    `json:"versao"`
	Sequencia     string    `json:"sequencia"`
}

// Lote representa o registro 0200 que abre um lote de lançamento.
type Lote struct {
	Numero  string
	Flag    string
	Data    time.Time
	Usuario string
}

// Detalhe representa o registro 0300 com a movimentação financeira.
// Valor é sempre não-negativo na origem; a natureza vem das contas.
type Detalhe struct {
	NumeroLote   string
	ContaDebito  string
	ContaCredito string
	Valor        decimal.Decimal
	Tag          string
	Historico    string
	Sufixo       string
}

// Lancamento é o par lote + detalhe montado pelo parser.
// Imutável após a montagem: as transformações produzem OutputRow novas.
type Lancamento struct {
	Lote    Lote
	Detalhe Detalhe
}

// LancamentoClassificado anota um lançamento com título, contraparte e tipo
// extraídos do histórico. Derivado, nunca gravado de volta no lançamento.
type LancamentoClassificado struct {
	Lancamento
	Titulo      string
	Contraparte string
	Tipo        TipoLancamento
	Ordem       int
}

// OutputRow representa uma linha normalizada da saída.
// NovoLote marca as linhas que recebem um novo número sequencial de lote
// no CSV tabular.
type OutputRow struct {
	Data         time.Time
	ContaDebito  string
	ContaCredito string
	Valor        decimal.Decimal
	Historico    string
	NovoLote     bool
}

// ErroEstrutural registra um problema de parse com a linha de origem (base 1).
type ErroEstrutural struct {
	Linha    int    `json:"linha"`
	Mensagem string `json:"mensagem"`
}

func (e ErroEstrutural) String() string {
	return fmt.Sprintf("linha %d: %s", e.Linha, e.Mensagem)
}

// ResultadoLancamentos é o resultado completo de um processamento:
// linhas finais ordenadas, avisos de transformação (não fatais) e erros
// estruturais de parse. Entrada totalmente malformada produz zero linhas
// e a lista de erros, nunca uma falha.
type ResultadoLancamentos struct {
	Cabecalho *Cabecalho       `json:"cabecalho,omitempty"`
	Rows      []OutputRow      `json:"-"`
	Avisos    []string         `json:"avisos"`
	Erros     []ErroEstrutural `json:"erros"`
}

// ContaPlano representa uma entrada do arquivo Contas.csv (código;classificação;descrição).
type ContaPlano struct {
	Codigo  string
	Classif string
	Desc    string
}
