package lancamentos

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"lancamentos-service/internal/domain"

	"github.com/shopspring/decimal"
)

// Larguras fixas do layout de exportação.
// Registro 0100: tipo(4) id(14) codigo(5) data(10) data(10) ind(1) versao(2) seq(8)
// Registro 0200: tipo(4) lote(5) flag(1) data(10) usuario(livre)
// Registro 0300: prefixo de 45 antes do primeiro espaço:
//
//	tipo(4) lote(5) debito(7) credito(7) valor(15, centavos) tag(7)
//
// seguido do histórico terminado em sufixo de 7 dígitos.
const (
	tamanhoCabecalho     = 54
	tamanhoLote          = 20
	tamanhoPrefixoDetail = 45
	tamanhoSufixo        = 7
)

const formatoData = "02/01/2006"

// estadoParse carrega o acumulador explícito do fold sobre as linhas:
// um único lote pendente por vez, aguardando seu detalhe.
type estadoParse struct {
	cabecalho     *domain.Cabecalho
	lotePendente  *domain.Lote
	linhaPendente int
	lancamentos   []domain.Lancamento
	erros         []domain.ErroEstrutural
}

func (st *estadoParse) erro(linha int, formato string, args ...interface{}) {
	st.erros = append(st.erros, domain.ErroEstrutural{
		Linha:    linha,
		Mensagem: fmt.Sprintf(formato, args...),
	})
}

// parseConteudo percorre o conteúdo já decodificado linha a linha e devolve
// o cabeçalho (se houver), os lançamentos montados e os erros estruturais.
// Nunca aborta: linhas inválidas são puladas e o parse continua.
func parseConteudo(conteudo string) (*domain.Cabecalho, []domain.Lancamento, []domain.ErroEstrutural) {
	st := &estadoParse{}

	conteudo = strings.ReplaceAll(conteudo, "\r\n", "\n")
	for i, linha := range strings.Split(conteudo, "\n") {
		numLinha := i + 1
		if strings.TrimSpace(linha) == "" {
			continue
		}
		if len(linha) < 4 {
			st.erro(numLinha, "registro curto demais: %q", linha)
			continue
		}

		switch linha[:4] {
		case "0100":
			parseCabecalho(st, numLinha, linha)
		case "0200":
			parseLote(st, numLinha, linha)
		case "0300":
			parseDetalhe(st, numLinha, linha)
		case "9900":
			// trailer: registrado mas não interpretado
		default:
			st.erro(numLinha, "tipo de registro desconhecido: %q", linha[:4])
		}
	}

	if st.lotePendente != nil {
		st.erro(st.linhaPendente, "lote %s sem registro de detalhe até o fim do arquivo", st.lotePendente.Numero)
	}

	return st.cabecalho, st.lancamentos, st.erros
}

func parseCabecalho(st *estadoParse, numLinha int, linha string) {
	if len(linha) < tamanhoCabecalho {
		st.erro(numLinha, "cabeçalho incompleto: esperados %d caracteres, encontrados %d", tamanhoCabecalho, len(linha))
		return
	}

	identificador := linha[4:18]
	codigo := linha[18:23]
	if !apenasDigitos(identificador) {
		st.erro(numLinha, "identificador do cabeçalho deve ter 14 dígitos: %q", identificador)
		return
	}
	if !apenasDigitos(codigo) {
		st.erro(numLinha, "código do cabeçalho deve ter 5 dígitos: %q", codigo)
		return
	}

	dataInicio, err := time.Parse(formatoData, linha[23:33])
	if err != nil {
		st.erro(numLinha, "data inicial do cabeçalho inválida: %q", linha[23:33])
		return
	}
	dataFim, err := time.Parse(formatoData, linha[33:43])
	if err != nil {
		st.erro(numLinha, "data final do cabeçalho inválida: %q", linha[33:43])
		return
	}

	versao := linha[44:46]
	sequencia := linha[46:54]
	if !apenasDigitos(versao) {
		st.erro(numLinha, "versão do cabeçalho deve ter 2 dígitos: %q", versao)
		return
	}
	if !apenasDigitos(sequencia) {
		st.erro(numLinha, "sequência do cabeçalho deve ter 8 dígitos: %q", sequencia)
		return
	}

	if st.cabecalho != nil {
		st.erro(numLinha, "cabeçalho duplicado; mantido o primeiro")
		return
	}

	st.cabecalho = &domain.Cabecalho{
		Identificador: identificador,
		Codigo:        codigo,
		DataInicio:    dataInicio,
		DataFim:       dataFim,
		Indicador:     linha[43:44],
		Versao:        versao,
		Sequencia:     sequencia,
	}
}

func parseLote(st *estadoParse, numLinha int, linha string) {
	if len(linha) < tamanhoLote {
		st.erro(numLinha, "registro de lote incompleto: esperados %d caracteres, encontrados %d", tamanhoLote, len(linha))
		return
	}

	numero := linha[4:9]
	if !apenasDigitos(numero) {
		st.erro(numLinha, "número do lote deve ter 5 dígitos: %q", numero)
		return
	}

	data, err := time.Parse(formatoData, linha[10:20])
	if err != nil {
		st.erro(numLinha, "data do lote inválida: %q", linha[10:20])
		return
	}

	if st.lotePendente != nil {
		st.erro(st.linhaPendente, "lote %s órfão: substituído pelo lote %s antes do detalhe", st.lotePendente.Numero, numero)
	}

	st.lotePendente = &domain.Lote{
		Numero:  numero,
		Flag:    linha[9:10],
		Data:    data,
		Usuario: strings.TrimRight(linha[20:], " "),
	}
	st.linhaPendente = numLinha
}

func parseDetalhe(st *estadoParse, numLinha int, linha string) {
	idx := strings.IndexByte(linha, ' ')
	if idx != tamanhoPrefixoDetail {
		st.erro(numLinha, "detalhe com prefixo inválido: esperados %d caracteres antes do primeiro espaço", tamanhoPrefixoDetail)
		return
	}

	prefixo := linha[:tamanhoPrefixoDetail]
	numeroLote := prefixo[4:9]
	contaDebito := prefixo[9:16]
	contaCredito := prefixo[16:23]
	valorStr := prefixo[23:38]
	tag := prefixo[38:45]

	for _, campo := range []struct {
		nome  string
		valor string
	}{
		{"lote", numeroLote},
		{"conta débito", contaDebito},
		{"conta crédito", contaCredito},
		{"valor", valorStr},
		{"tag", tag},
	} {
		if !apenasDigitos(campo.valor) {
			st.erro(numLinha, "campo %s do detalhe deve ser numérico: %q", campo.nome, campo.valor)
			return
		}
	}

	centavos, err := strconv.ParseInt(valorStr, 10, 64)
	if err != nil {
		st.erro(numLinha, "valor do detalhe fora do intervalo: %q", valorStr)
		return
	}

	resto := strings.TrimRight(linha[idx+1:], " ")
	if len(resto) < tamanhoSufixo || !apenasDigitos(resto[len(resto)-tamanhoSufixo:]) {
		st.erro(numLinha, "histórico do detalhe deve terminar em sufixo de %d dígitos", tamanhoSufixo)
		return
	}
	sufixo := resto[len(resto)-tamanhoSufixo:]
	historico := strings.TrimSpace(resto[:len(resto)-tamanhoSufixo])

	if st.lotePendente == nil {
		st.erro(numLinha, "detalhe do lote %s sem registro de lote pendente", numeroLote)
		return
	}
	if numeroLote != st.lotePendente.Numero {
		st.erro(numLinha, "detalhe do lote %s não corresponde ao lote pendente %s", numeroLote, st.lotePendente.Numero)
		return
	}

	st.lancamentos = append(st.lancamentos, domain.Lancamento{
		Lote: *st.lotePendente,
		Detalhe: domain.Detalhe{
			NumeroLote:   numeroLote,
			ContaDebito:  contaDebito,
			ContaCredito: contaCredito,
			Valor:        decimal.New(centavos, -2),
			Tag:          tag,
			Historico:    historico,
			Sufixo:       sufixo,
		},
	})
	st.lotePendente = nil
	st.linhaPendente = 0
}

func apenasDigitos(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
