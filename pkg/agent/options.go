package agent

import (
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"jobhunt-ai/internal/constants"
)

// GenerateOptions 本包模型实现的专有调用选项
type GenerateOptions struct {
	// JSONResponse 要求模型只输出严格的 JSON
	JSONResponse bool
	// GoogleSearch 开启搜索增强（search grounding）
	GoogleSearch bool
}

// WithJSONResponse 要求输出 application/json
func WithJSONResponse() model.Option {
	return model.WrapImplSpecificOptFn(func(o *GenerateOptions) {
		o.JSONResponse = true
	})
}

// WithGoogleSearch 为单次调用开启搜索增强
func WithGoogleSearch() model.Option {
	return model.WrapImplSpecificOptFn(func(o *GenerateOptions) {
		o.GoogleSearch = true
	})
}

// GetGenerateOptions 解析调用选项
func GetGenerateOptions(opts ...model.Option) *GenerateOptions {
	return model.GetImplSpecificOptions(&GenerateOptions{}, opts...)
}

// GoogleSearchTool 通过 WithTools 绑定搜索增强时使用的工具描述
func GoogleSearchTool() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name: constants.GoogleSearchToolName,
		Desc: "Augment the response with live Google Search results.",
	}
}

// hasGoogleSearchTool 判断工具列表中是否包含搜索增强
func hasGoogleSearchTool(tools []*schema.ToolInfo) bool {
	for _, t := range tools {
		if t != nil && t.Name == constants.GoogleSearchToolName {
			return true
		}
	}
	return false
}
