package fmtx

import (
	"bytes"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
	"golang.org/x/exp/maps"
)

const (
	TblColWidth = 120
)

func TblList(caption string, items [][]any) string {
	sb := bytes.NewBufferString("\n")
	sb.WriteString(fmt.Sprintf("%s\n\n", caption))
	tbl := tablewriter.NewWriter(sb)
	tbl.SetColWidth(TblColWidth)
	tbl.SetHeader([]string{})
	tbl.SetBorder(false)
	tbl.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, item := range items {
		tbl.Append([]string{TblValue(item[0]), TblValue(item[1])})
	}
	tbl.Render()
	sb.WriteString("\n")
	return sb.String()
}

func TblValue(value any) string {
	result := ""
	if value != nil {
		rv := reflect.ValueOf(value)
		kind := rv.Type().Kind()
		if kind == reflect.Map {
			mapValues := map[string]string{}
			for _, key := range rv.MapKeys() {
				mapValues[key.String()] = fmt.Sprintf("%v", rv.MapIndex(key).Interface())
			}
			keys := maps.Keys(mapValues)
			sort.Strings(keys)
			result = strings.Join(lo.Map(keys, func(k string, _ int) string {
				return fmt.Sprintf("%s = %v", k, mapValues[k])
			}), ", ")
		} else if kind == reflect.Array || kind == reflect.Slice {
			var listValue []string
			for i := 0; i < rv.Len(); i++ {
				listValue = append(listValue, fmt.Sprintf("%v", rv.Index(i).Interface()))
			}
			result = strings.Join(listValue, ", ")
		} else {
			result = fmt.Sprintf("%v", value)
		}
	}
	if len(result) == 0 {
		return "<empty>"
	}
	return result
}
