package discovery

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"
)

// ACTION_SYNONYMS and ENTITY_SYNONYMS are the two closed synonym tables
// tool discovery builds its reverse tag index from. Each canonical tag
// maps to a list of multilingual synonyms; a tool receives the tag
// whenever any synonym appears in its name or description.
var actionSynonyms = map[string][]string{
	"read":    {"read", "get", "fetch", "view", "show", "读取", "获取", "查看"},
	"write":   {"write", "set", "put", "enter", "input", "写入", "输入", "设置"},
	"create":  {"create", "new", "add", "insert", "make", "创建", "新建", "添加"},
	"delete":  {"delete", "remove", "clear", "erase", "drop", "删除", "清除", "移除"},
	"update":  {"update", "modify", "change", "edit", "更新", "修改", "编辑"},
	"format":  {"format", "style", "formatting", "格式", "样式"},
	"calculate": {"calculate", "compute", "formula", "计算", "公式"},
	"analyze": {"analyze", "analysis", "summarize", "分析", "汇总"},
	"filter":  {"filter", "search", "query", "筛选", "过滤", "查询"},
	"sort":    {"sort", "order", "arrange", "排序", "排列"},
	"merge":   {"merge", "combine", "join", "合并", "组合"},
	"split":   {"split", "separate", "divide", "拆分", "分割"},
	"copy":    {"copy", "duplicate", "clone", "复制", "克隆"},
	"move":    {"move", "relocate", "transfer", "移动", "转移"},
	"chart":   {"chart", "graph", "plot", "visualize", "图表", "绘图"},
}

var entitySynonyms = map[string][]string{
	"cell":     {"cell", "单元格"},
	"range":    {"range", "selection", "区域", "范围"},
	"row":      {"row", "行"},
	"column":   {"column", "col", "列"},
	"sheet":    {"sheet", "worksheet", "tab", "工作表", "表格"},
	"workbook": {"workbook", "file", "document", "工作簿", "文件"},
	"formula":  {"formula", "expression", "公式", "表达式"},
	"value":    {"value", "data", "数值", "数据"},
	"format":   {"format", "style", "格式"},
	"chart":    {"chart", "图表"},
	"table":    {"table", "表格"},
	"filter":   {"filter", "筛选器"},
	"sort":     {"sort", "排序"},
	"color":    {"color", "colour", "颜色"},
	"border":   {"border", "边框"},
	"font":     {"font", "字体"},
}

// Tag weights, per the discovery scoring contract.
const (
	actionWeight   = 0.8
	entityWeight   = 0.7
	categoryWeight = 0.5
)

type taggedSynonym struct {
	tag    string
	weight float64
}

// allSynonymTables returns every (canonical tag, synonym list, weight)
// triple across both closed tables, used to build the reverse index.
func allSynonymTables() []struct {
	table  map[string][]string
	weight float64
} {
	return []struct {
		table  map[string][]string
		weight float64
	}{
		{actionSynonyms, actionWeight},
		{entitySynonyms, entityWeight},
	}
}

// MatchSynonymTags scans text against both closed synonym tables and
// returns every canonical action tag and entity tag it matches. The
// Intent Parser's semantic-atom extraction uses this directly so both
// layers agree on the same closed vocabulary.
func MatchSynonymTags(text string) (actions []string, entities []string) {
	norm := cases.Fold().String(width.Fold.String(text))
	for tag, synonyms := range actionSynonyms {
		for _, syn := range synonyms {
			if strings.Contains(norm, cases.Fold().String(width.Fold.String(syn))) {
				actions = append(actions, tag)
				break
			}
		}
	}
	for tag, synonyms := range entitySynonyms {
		for _, syn := range synonyms {
			if strings.Contains(norm, cases.Fold().String(width.Fold.String(syn))) {
				entities = append(entities, tag)
				break
			}
		}
	}
	return actions, entities
}
