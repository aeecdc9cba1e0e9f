package lancamentos

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"lancamentos-service/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

var cabecalhoCSV = []string{"Data", "Conta Débito", "Conta Crédito", "Valor", "Histórico", "Lote"}

// formatValorVirgula formata o valor com duas casas e vírgula decimal.
func formatValorVirgula(v decimal.Decimal) string {
	return strings.Replace(v.StringFixed(2), ".", ",", 1)
}

// sanitizeForCSV remove/controla caracteres de controle e retorna string "limpa"
// - remove tabs, newlines embutidos, converte controles para espaço e trim
func sanitizeForCSV(s string) string {
	if s == "" {
		return ""
	}

	start := 0
	end := len(s)

	for start < end {
		r, size := utf8.DecodeRuneInString(s[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		start += size
	}
	for end > start {
		r, size := utf8.DecodeLastRuneInString(s[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		end -= size
	}
	if start >= end {
		return ""
	}

	var b strings.Builder
	b.Grow(end - start)

	for i := start; i < end; {
		r, size := utf8.DecodeRuneInString(s[i:end])
		i += size

		if r == '\r' || r == '\n' || r == '\t' {
			continue
		}
		if r < 32 {
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(r)
	}

	return b.String()
}

// linhasExibicao renderiza cada linha no formato de conferência
// DD/MM/AAAA | débito | crédito | valor | histórico.
func linhasExibicao(rows []domain.OutputRow) []string {
	linhas := make([]string, 0, len(rows))
	for _, row := range rows {
		linhas = append(linhas, fmt.Sprintf("%s | %s | %s | %s | %s",
			row.Data.Format(formatoData),
			row.ContaDebito,
			row.ContaCredito,
			formatValorVirgula(row.Valor),
			row.Historico))
	}
	return linhas
}

// registroTabular monta as colunas de uma linha do export tabular. O contador
// de lote é incrementado e preenchido somente nas linhas marcadas; o
// histórico é maiusculizado apenas nesta forma.
func registroTabular(row domain.OutputRow, contadorLote *int) []string {
	lote := ""
	if row.NovoLote {
		*contadorLote++
		lote = strconv.Itoa(*contadorLote)
	}
	return []string{
		sanitizeForCSV(row.Data.Format(formatoData)),
		sanitizeForCSV(row.ContaDebito),
		sanitizeForCSV(row.ContaCredito),
		sanitizeForCSV(formatValorVirgula(row.Valor)),
		sanitizeForCSV(strings.ToUpper(row.Historico)),
		lote,
	}
}

func gerarCSVLancamentos(rows []domain.OutputRow) ([]byte, error) {
	var buffer bytes.Buffer
	encoder := charmap.Windows1252.NewEncoder() // manter cp1252 para compatibilidade com o importador contábil
	writer := csv.NewWriter(transform.NewWriter(&buffer, encoder))
	writer.Comma = ';'

	header := make([]string, len(cabecalhoCSV))
	for i, h := range cabecalhoCSV {
		header[i] = sanitizeForCSV(h)
	}
	if err := writer.Write(header); err != nil {
		return nil, err
	}

	contadorLote := 0
	for _, row := range rows {
		if err := writer.Write(registroTabular(row, &contadorLote)); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	return buffer.Bytes(), writer.Error()
}

func gerarXLSXLancamentos(rows []domain.OutputRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Lancamentos"
	f.SetSheetName(f.GetSheetName(0), sheet)

	for col, h := range cabecalhoCSV {
		celula, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, celula, h); err != nil {
			return nil, err
		}
	}

	contadorLote := 0
	for i, row := range rows {
		registro := registroTabular(row, &contadorLote)
		for col, valor := range registro {
			celula, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, celula, valor); err != nil {
				return nil, err
			}
		}
	}

	var buffer bytes.Buffer
	if err := f.Write(&buffer); err != nil {
		return nil, fmt.Errorf("erro ao gravar planilha: %w", err)
	}
	return buffer.Bytes(), nil
}
