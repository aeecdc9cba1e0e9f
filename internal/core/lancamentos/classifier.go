package lancamentos

import (
	"regexp"
	"strings"

	"lancamentos-service/internal/domain"
)

// separadorSegmento é o separador literal de segmentos dentro do histórico.
const separadorSegmento = " | "

var tituloRegexes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)PAGTO TITULO\s+(.*?)(?: \| |$)`),
	regexp.MustCompile(`(?i)TITULO NR\s+(.*?)(?: \| |$)`),
}

// regraTipo associa um padrão do histórico a um tipo. A ordem da tabela
// define a precedência: desconto antes de tarifa antes de pagamento, pois
// tarifas e descontos são itens subordinados que também podem citar o
// pagamento no mesmo histórico.
type regraTipo struct {
	padrao *regexp.Regexp
	tipo   domain.TipoLancamento
}

var regrasTipo = []regraTipo{
	{regexp.MustCompile(`(?i)VLR DESCONTO|VALOR DESCONTO|\sDESCONTO\s`), domain.TipoDesconto},
	{regexp.MustCompile(`(?i)VLR TARIFAS|VLR TARIFA|\sTARIFAS?\s`), domain.TipoTarifa},
	{regexp.MustCompile(`(?i)\bPAGTO TITULO\b`), domain.TipoPagamento},
}

// extrairTitulo busca "PAGTO TITULO <v>" ou "TITULO NR <v>" no histórico,
// com <v> correndo até o próximo " | " ou o fim da string.
func extrairTitulo(historico string) string {
	for _, re := range tituloRegexes {
		if m := re.FindStringSubmatch(historico); len(m) > 1 {
			if titulo := strings.TrimSpace(m[1]); titulo != "" {
				return titulo
			}
		}
	}
	return ""
}

// extrairContraparte devolve o último segmento delimitado por " | ", se houver.
func extrairContraparte(historico string) string {
	if !strings.Contains(historico, separadorSegmento) {
		return ""
	}
	segmentos := strings.Split(historico, separadorSegmento)
	return strings.TrimSpace(segmentos[len(segmentos)-1])
}

func classificarTipo(historico string) domain.TipoLancamento {
	for _, regra := range regrasTipo {
		if regra.padrao.MatchString(historico) {
			return regra.tipo
		}
	}
	return domain.TipoNaoClassificado
}

// classificarLancamentos anota cada lançamento com título, contraparte e tipo,
// preservando a ordem de chegada. A anotação é derivada do histórico e nunca
// gravada de volta no lançamento.
func classificarLancamentos(lancamentos []domain.Lancamento) []domain.LancamentoClassificado {
	classificados := make([]domain.LancamentoClassificado, 0, len(lancamentos))
	for i, l := range lancamentos {
		historico := l.Detalhe.Historico
		classificados = append(classificados, domain.LancamentoClassificado{
			Lancamento:  l,
			Titulo:      extrairTitulo(historico),
			Contraparte: extrairContraparte(historico),
			Tipo:        classificarTipo(historico),
			Ordem:       i,
		})
	}
	return classificados
}
