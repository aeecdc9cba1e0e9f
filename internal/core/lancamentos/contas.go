package lancamentos

import (
	"bytes"
	"encoding/csv"
	"io"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"lancamentos-service/internal/domain"

	"github.com/schollz/closestmatch"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// contaFallback é o código emitido quando nenhuma conta do plano corresponde.
const contaFallback = "999999"

var nonAlphanumericRegex = regexp.MustCompile(`[^A-Z0-9 ]+`)
var whitespaceRegex = regexp.MustCompile(`\s+`)

// normalizeText remove acentos, maiusculiza e colapsa espaços para que as
// descrições do plano e as contrapartes do histórico comparem de forma estável.
func normalizeText(str string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}))
	result, _, _ := transform.String(t, str)
	result = strings.ToUpper(result)
	result = nonAlphanumericRegex.ReplaceAllString(result, " ")
	result = whitespaceRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

// lerPlanoContas lê o Contas.csv (ISO-8859-1, código;classificação;descrição)
// e devolve o mapa descrição normalizada -> entradas mais a ordem das chaves
// para o fuzzy.
func lerPlanoContas(contasFile io.Reader) (map[string][]domain.ContaPlano, []string, error) {
	decoder := charmap.ISO8859_1.NewDecoder()
	reader := csv.NewReader(transform.NewReader(contasFile, decoder))
	reader.Comma = ';'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	contasMap := make(map[string][]domain.ContaPlano)
	order := make([]string, 0, len(records))
	seen := make(map[string]bool)

	for _, rec := range records {
		if len(rec) < 3 {
			continue
		}
		codigo := strings.TrimSpace(rec[0])
		classif := strings.TrimSpace(rec[1])
		desc := strings.TrimSpace(rec[2])

		if codigo == "" || desc == "" {
			continue
		}

		chave := normalizeText(desc)
		if chave == "" {
			continue
		}

		contasMap[chave] = append(contasMap[chave], domain.ContaPlano{
			Codigo:  codigo,
			Classif: classif,
			Desc:    desc,
		})
		if !seen[chave] {
			seen[chave] = true
			order = append(order, chave)
		}
	}

	return contasMap, order, nil
}

// buscarConta encontra o código da conta para uma descrição, por
// correspondência exata e depois fuzzy sobre as descrições normalizadas,
// aplicando filtro por prefixo de classificação quando fornecido.
// Retorna o código encontrado ou "999999".
func buscarConta(descricao string, contasMap map[string][]domain.ContaPlano, descricaoIndex []string, classPrefixes []string) string {
	descNorm := normalizeText(descricao)
	if descNorm == "" {
		return contaFallback
	}

	// prefere a classificação mais longa (mais específica)
	pickBest := func(entries []domain.ContaPlano, prefixes []string) (domain.ContaPlano, bool) {
		candidates := entries
		if len(prefixes) > 0 {
			var filtered []domain.ContaPlano
			for _, e := range entries {
				for _, p := range prefixes {
					if strings.HasPrefix(e.Classif, p) {
						filtered = append(filtered, e)
						break
					}
				}
			}
			if len(filtered) == 0 {
				return domain.ContaPlano{}, false
			}
			candidates = filtered
		}
		if len(candidates) == 0 {
			return domain.ContaPlano{}, false
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			return len(candidates[i].Classif) > len(candidates[j].Classif)
		})
		return candidates[0], true
	}

	if entries, ok := contasMap[descNorm]; ok && len(entries) > 0 {
		if be, ok2 := pickBest(entries, classPrefixes); ok2 {
			return strings.TrimSpace(be.Codigo)
		}
	}

	candidateKeys := descricaoIndex
	if len(classPrefixes) > 0 {
		var filteredKeys []string
		for _, k := range descricaoIndex {
			for _, e := range contasMap[k] {
				encontrou := false
				for _, p := range classPrefixes {
					if strings.HasPrefix(e.Classif, p) {
						filteredKeys = append(filteredKeys, k)
						encontrou = true
						break
					}
				}
				if encontrou {
					break
				}
			}
		}
		if len(filteredKeys) == 0 {
			// sem chave dentro do filtro o fuzzy escolheria fora dele
			return contaFallback
		}
		candidateKeys = filteredKeys
	}

	if len(candidateKeys) > 0 {
		cm := closestmatch.New(candidateKeys, []int{3, 4, 5})
		if match := cm.Closest(descNorm); match != "" {
			if entries, ok := contasMap[match]; ok && len(entries) > 0 {
				if be, ok2 := pickBest(entries, classPrefixes); ok2 {
					return strings.TrimSpace(be.Codigo)
				}
			}
		}
	}

	return contaFallback
}

// gerarCSVComContas produz o export tabular acrescido da coluna
// "Conta Contraparte": a contraparte extraída do histórico de cada linha
// resolvida contra o plano de contas. O cache evita fuzzy repetido para a
// mesma contraparte.
func gerarCSVComContas(rows []domain.OutputRow, contasMap map[string][]domain.ContaPlano, descricaoIndex []string, classPrefixes []string) ([]byte, error) {
	cache := make(map[string]string, 64)
	resolver := func(historico string) string {
		contraparte := extrairContraparte(historico)
		if contraparte == "" {
			return ""
		}
		chave := strings.ToUpper(contraparte)
		if codigo, ok := cache[chave]; ok {
			return codigo
		}
		codigo := buscarConta(contraparte, contasMap, descricaoIndex, classPrefixes)
		cache[chave] = codigo
		return codigo
	}

	var buffer bytes.Buffer
	encoder := charmap.Windows1252.NewEncoder()
	writer := csv.NewWriter(transform.NewWriter(&buffer, encoder))
	writer.Comma = ';'

	header := make([]string, 0, len(cabecalhoCSV)+1)
	for _, h := range cabecalhoCSV {
		header = append(header, sanitizeForCSV(h))
	}
	header = append(header, sanitizeForCSV("Conta Contraparte"))
	if err := writer.Write(header); err != nil {
		return nil, err
	}

	contadorLote := 0
	for _, row := range rows {
		registro := registroTabular(row, &contadorLote)
		registro = append(registro, sanitizeForCSV(resolver(row.Historico)))
		if err := writer.Write(registro); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	return buffer.Bytes(), writer.Error()
}
