package lancamentos

import (
	"fmt"
	"sort"
	"strings"

	"lancamentos-service/internal/domain"

	"github.com/shopspring/decimal"
)

// toleranciaSaldo é a diferença máxima aceita entre débito e crédito de um
// grupo reescrito. Acima disso o grupo volta para as linhas originais.
var toleranciaSaldo = decimal.NewFromInt32(1).Shift(-2) // 0.01

// chaveGrupo agrupa lançamentos por (data, título, contraparte).
type chaveGrupo struct {
	data        string
	titulo      string
	contraparte string
}

func (c chaveGrupo) String() string {
	if c.contraparte == "" {
		return fmt.Sprintf("%s / %s", c.data, c.titulo)
	}
	return fmt.Sprintf("%s / %s / %s", c.data, c.titulo, c.contraparte)
}

// resultadoGrupo distingue um grupo reescrito com sucesso de um retorno
// seguro às linhas originais (com o motivo).
type resultadoGrupo struct {
	rows        []domain.OutputRow
	normalizado bool
	motivo      string
}

// transformarLancamentos agrupa os lançamentos classificados, tenta normalizar
// cada grupo e devolve as linhas finais mais os avisos de grupos que ficaram
// inalterados por não atenderem aos critérios.
func transformarLancamentos(classificados []domain.LancamentoClassificado) ([]domain.OutputRow, []string) {
	var grupos [][]domain.LancamentoClassificado
	indicePorChave := make(map[chaveGrupo]int)

	for _, lc := range classificados {
		if lc.Titulo == "" {
			// sem título o histórico não é correlacionável; o lançamento
			// fica isolado e nunca é mesclado
			grupos = append(grupos, []domain.LancamentoClassificado{lc})
			continue
		}
		chave := chaveGrupo{
			data:        lc.Lote.Data.Format(formatoData),
			titulo:      lc.Titulo,
			contraparte: lc.Contraparte,
		}
		if idx, ok := indicePorChave[chave]; ok {
			grupos[idx] = append(grupos[idx], lc)
			continue
		}
		indicePorChave[chave] = len(grupos)
		grupos = append(grupos, []domain.LancamentoClassificado{lc})
	}

	var rows []domain.OutputRow
	var avisos []string
	for _, grupo := range grupos {
		resultado := normalizarGrupo(grupo)
		rows = append(rows, resultado.rows...)
		if !resultado.normalizado && resultado.motivo != "" {
			avisos = append(avisos, resultado.motivo)
		}
	}
	return rows, avisos
}

func normalizarGrupo(grupo []domain.LancamentoClassificado) resultadoGrupo {
	var pagamentos, tarifas, descontos, outros []domain.LancamentoClassificado
	for _, lc := range grupo {
		switch lc.Tipo {
		case domain.TipoPagamento:
			pagamentos = append(pagamentos, lc)
		case domain.TipoTarifa:
			tarifas = append(tarifas, lc)
		case domain.TipoDesconto:
			descontos = append(descontos, lc)
		default:
			outros = append(outros, lc)
		}
	}

	chave := descreverGrupo(grupo)

	if len(pagamentos) == 0 {
		return manterOriginais(grupo, avisoSe(len(grupo) > 1, "grupo %s inalterado: nenhum pagamento", chave))
	}
	if len(tarifas) == 0 {
		return manterOriginais(grupo, avisoSe(len(grupo) > 1, "grupo %s inalterado: nenhuma tarifa", chave))
	}
	if len(outros) > 0 {
		return manterOriginais(grupo, fmt.Sprintf("grupo %s inalterado: %d lançamento(s) não classificado(s)", chave, len(outros)))
	}

	contasCredito := contasCreditoDistintas(pagamentos)
	if len(contasCredito) > 1 {
		return manterOriginais(grupo, fmt.Sprintf(
			"grupo %s inalterado: pagamentos com contas de crédito divergentes (%s)",
			chave, strings.Join(contasCredito, ", ")))
	}
	contaCredito := contasCredito[0]

	somaPagamentos := decimal.Zero
	for _, p := range pagamentos {
		somaPagamentos = somaPagamentos.Add(p.Detalhe.Valor)
	}
	somaTarifas := decimal.Zero
	for _, t := range tarifas {
		somaTarifas = somaTarifas.Add(t.Detalhe.Valor)
	}
	somaConsolidada := somaPagamentos.Add(somaTarifas)

	// o crédito consolidado iguala débito e crédito por construção; só os
	// descontos podem desequilibrar o grupo
	totalDebito := somaConsolidada
	totalCredito := somaConsolidada
	for _, d := range descontos {
		temDebito := d.Detalhe.ContaDebito != ""
		temCredito := d.Detalhe.ContaCredito != ""
		if temDebito {
			totalDebito = totalDebito.Add(d.Detalhe.Valor)
		}
		if temCredito {
			totalCredito = totalCredito.Add(d.Detalhe.Valor)
		}
	}
	if totalDebito.Sub(totalCredito).Abs().GreaterThan(toleranciaSaldo) {
		return manterOriginais(grupo, fmt.Sprintf(
			"grupo %s inalterado: saldo não confere após reescrita (débito %s, crédito %s)",
			chave, totalDebito.StringFixed(2), totalCredito.StringFixed(2)))
	}

	ordenarPorChegada(pagamentos)
	ordenarPorChegada(tarifas)
	ordenarPorChegada(descontos)

	rows := make([]domain.OutputRow, 0, len(grupo)+1)
	for i, p := range pagamentos {
		rows = append(rows, domain.OutputRow{
			Data:        p.Lote.Data,
			ContaDebito: p.Detalhe.ContaDebito,
			Valor:       p.Detalhe.Valor,
			Historico:   p.Detalhe.Historico,
			NovoLote:    i == 0,
		})
	}
	for _, t := range tarifas {
		rows = append(rows, domain.OutputRow{
			Data:        t.Lote.Data,
			ContaDebito: t.Detalhe.ContaDebito,
			Valor:       t.Detalhe.Valor,
			Historico:   t.Detalhe.Historico,
		})
	}
	primeiro := pagamentos[0]
	rows = append(rows, domain.OutputRow{
		Data:         primeiro.Lote.Data,
		ContaCredito: contaCredito,
		Valor:        somaConsolidada,
		Historico:    primeiro.Detalhe.Historico,
	})
	for _, d := range descontos {
		rows = append(rows, domain.OutputRow{
			Data:         d.Lote.Data,
			ContaDebito:  d.Detalhe.ContaDebito,
			ContaCredito: d.Detalhe.ContaCredito,
			Valor:        d.Detalhe.Valor,
			Historico:    d.Detalhe.Historico,
			NovoLote:     true,
		})
	}

	return resultadoGrupo{rows: rows, normalizado: true}
}

// manterOriginais emite os membros do grupo sem modificação, na ordem de
// chegada, todos marcados como início de lote.
func manterOriginais(grupo []domain.LancamentoClassificado, motivo string) resultadoGrupo {
	ordenados := make([]domain.LancamentoClassificado, len(grupo))
	copy(ordenados, grupo)
	ordenarPorChegada(ordenados)

	rows := make([]domain.OutputRow, 0, len(ordenados))
	for _, lc := range ordenados {
		rows = append(rows, domain.OutputRow{
			Data:         lc.Lote.Data,
			ContaDebito:  lc.Detalhe.ContaDebito,
			ContaCredito: lc.Detalhe.ContaCredito,
			Valor:        lc.Detalhe.Valor,
			Historico:    lc.Detalhe.Historico,
			NovoLote:     true,
		})
	}
	return resultadoGrupo{rows: rows, motivo: motivo}
}

func ordenarPorChegada(lcs []domain.LancamentoClassificado) {
	sort.SliceStable(lcs, func(i, j int) bool { return lcs[i].Ordem < lcs[j].Ordem })
}

func contasCreditoDistintas(pagamentos []domain.LancamentoClassificado) []string {
	var contas []string
	vistas := make(map[string]bool)
	for _, p := range pagamentos {
		if !vistas[p.Detalhe.ContaCredito] {
			vistas[p.Detalhe.ContaCredito] = true
			contas = append(contas, p.Detalhe.ContaCredito)
		}
	}
	return contas
}

func descreverGrupo(grupo []domain.LancamentoClassificado) string {
	primeiro := grupo[0]
	chave := chaveGrupo{
		data:        primeiro.Lote.Data.Format(formatoData),
		titulo:      primeiro.Titulo,
		contraparte: primeiro.Contraparte,
	}
	if chave.titulo == "" {
		chave.titulo = "(sem título)"
	}
	return chave.String()
}

func avisoSe(cond bool, formato string, args ...interface{}) string {
	if !cond {
		return ""
	}
	return fmt.Sprintf(formato, args...)
}
