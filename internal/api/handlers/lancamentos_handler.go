package handlers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"lancamentos-service/internal/api/responses"
	"lancamentos-service/internal/core/lancamentos"
	"lancamentos-service/internal/domain"

	"github.com/gin-gonic/gin"
)

// LancamentosHandler lida com as requisições da API de conversão de lançamentos.
type LancamentosHandler struct {
	service lancamentos.Service
}

// NewLancamentosHandler cria um novo handler de lançamentos.
func NewLancamentosHandler(service lancamentos.Service) *LancamentosHandler {
	return &LancamentosHandler{
		service: service,
	}
}

// getPrefixesFromForm extrai e limpa os prefixos de um campo de formulário.
func getPrefixesFromForm(c *gin.Context, formKey string) []string {
	prefixesStr := c.PostForm(formKey)
	if prefixesStr == "" {
		return nil
	}
	parts := strings.Split(prefixesStr, ",")
	var prefixes []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			prefixes = append(prefixes, trimmed)
		}
	}
	return prefixes
}

// processarUpload abre o arquivo de lançamentos do formulário e roda o pipeline.
func (h *LancamentosHandler) processarUpload(c *gin.Context) (*domain.ResultadoLancamentos, bool) {
	lancamentosFileHeader, err := c.FormFile("lancamentosFile")
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "Arquivo de Lançamentos não encontrado ou inválido")
		return nil, false
	}

	lancamentosFile, err := lancamentosFileHeader.Open()
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Não foi possível abrir o arquivo de Lançamentos")
		return nil, false
	}
	defer lancamentosFile.Close()

	resultado, err := h.service.ProcessLancamentosFile(lancamentosFile)
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Erro ao processar o arquivo de lançamentos", err.Error())
		return nil, false
	}
	return resultado, true
}

// abrirContasOpcional devolve o arquivo de contas se enviado, ou nil.
func abrirContasOpcional(c *gin.Context) (multipart.File, bool) {
	contasFileHeader, err := c.FormFile("contasFile")
	if err != nil {
		return nil, true
	}
	contasFile, err := contasFileHeader.Open()
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Não foi possível abrir o arquivo de Contas")
		return nil, false
	}
	return contasFile, true
}

// HandleLancamentosConversion converte o arquivo de exportação em CSV tabular.
// Com um arquivo de contas opcional, o CSV ganha a coluna de conta da contraparte.
func (h *LancamentosHandler) HandleLancamentosConversion(c *gin.Context) {
	resultado, ok := h.processarUpload(c)
	if !ok {
		return
	}

	contasFile, ok := abrirContasOpcional(c)
	if !ok {
		return
	}

	var outputCSV []byte
	var err error
	if contasFile != nil {
		defer contasFile.Close()
		classPrefixes := getPrefixesFromForm(c, "classPrefixes")
		outputCSV, err = h.service.GerarCSVComContas(resultado, contasFile, classPrefixes)
	} else {
		outputCSV, err = h.service.GerarCSVLancamentos(resultado)
	}
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Erro ao gerar CSV final", err.Error())
		return
	}

	fileName := fmt.Sprintf("LancamentosContabeis_%s.csv", time.Now().Format("20060102_150405"))
	responses.Download(c, fileName, "text/csv; charset=utf-8", outputCSV)
}

// HandleLancamentosXLSX converte o arquivo de exportação em planilha xlsx.
func (h *LancamentosHandler) HandleLancamentosXLSX(c *gin.Context) {
	resultado, ok := h.processarUpload(c)
	if !ok {
		return
	}

	outputXLSX, err := h.service.GerarXLSXLancamentos(resultado)
	if err != nil {
		responses.Error(c, http.StatusInternalServerError, "Erro ao gerar planilha", err.Error())
		return
	}

	fileName := fmt.Sprintf("LancamentosContabeis_%s.xlsx", time.Now().Format("20060102_150405"))
	responses.Download(c, fileName, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", outputXLSX)
}

// previewLancamentos é o payload JSON do preview de conversão.
type previewLancamentos struct {
	Cabecalho *domain.Cabecalho `json:"cabecalho,omitempty"`
	Linhas    []string          `json:"linhas"`
	Avisos    []string          `json:"avisos"`
	Erros     []string          `json:"erros"`
}

// HandleLancamentosPreview devolve as linhas convertidas, avisos e erros em JSON
// para conferência antes do download.
func (h *LancamentosHandler) HandleLancamentosPreview(c *gin.Context) {
	resultado, ok := h.processarUpload(c)
	if !ok {
		return
	}

	erros := make([]string, 0, len(resultado.Erros))
	for _, e := range resultado.Erros {
		erros = append(erros, e.String())
	}

	preview := previewLancamentos{
		Cabecalho: resultado.Cabecalho,
		Linhas:    h.service.LinhasExibicao(resultado),
		Avisos:    resultado.Avisos,
		Erros:     erros,
	}
	if preview.Linhas == nil {
		preview.Linhas = []string{}
	}
	if preview.Avisos == nil {
		preview.Avisos = []string{}
	}

	responses.Success(c, preview, "Conversão de lançamentos concluída com sucesso")
}
