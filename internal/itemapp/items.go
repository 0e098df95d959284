package itemapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/nao1215/itemdesk/pkg/endpoint"
	"github.com/nao1215/itemdesk/pkg/httpclient"
)

// Item はAPIから取得したアイテム。
type Item struct {
	// ID はアイテムの識別子。レスポンスのid、なければitem_idを文字列化したもの。
	ID string
	// Name はアイテム名。
	Name string
	// Description はアイテムの説明。
	Description string
	// OwnerID は所有者のユーザーID。
	OwnerID string
}

// rawItem はレスポンス中のアイテムのJSON構造。
// バックエンドによって文字列と数値が混在するため、すべての項目を型を限定せずに受け取る。
type rawItem struct {
	ID          any `json:"id"`
	ItemID      any `json:"item_id"`
	Name        any `json:"name"`
	Description any `json:"description"`
	OwnerID     any `json:"owner_id"`
}

func (r rawItem) toItem() Item {
	id := r.ID
	if id == nil {
		id = r.ItemID
	}
	return Item{
		ID:          endpoint.FormatID(id),
		Name:        endpoint.FormatID(r.Name),
		Description: endpoint.FormatID(r.Description),
		OwnerID:     endpoint.FormatID(r.OwnerID),
	}
}

// itemBody はアイテム作成・更新リクエストのJSON構造。
type itemBody struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ListItems はログインユーザーのアイテム一覧を取得する。
// レスポンスは配列と {"items": [...]} のどちらの形でも受け付ける。
func (a *App) ListItems(ctx context.Context) ([]Item, Status) {
	res := a.client.Request(ctx, a.client.Endpoints().ItemsList, httpclient.RequestOptions{Authorize: true})
	if !res.Success {
		st := requestFailed(res, "")
		st.Message = fmt.Sprintf("Error (%d). Check items_list path or authentication.", res.StatusCode)
		return nil, st
	}

	items := decodeItems(res.Payload)
	if len(items) == 0 {
		return items, ok("No items found.", res.StatusCode)
	}
	return items, ok(fmt.Sprintf("%d item(s).", len(items)), res.StatusCode)
}

// decodeItems はペイロードからアイテム一覧を取り出す。解釈できない場合は空を返す。
// オブジェクトとして読めない要素だけを読み飛ばし、残りは一覧に含める。
func decodeItems(payload json.RawMessage) []Item {
	var elems []json.RawMessage
	if err := json.Unmarshal(payload, &elems); err != nil {
		var wrapped struct {
			Items []json.RawMessage `json:"items"`
		}
		if err := json.Unmarshal(payload, &wrapped); err != nil {
			return []Item{}
		}
		elems = wrapped.Items
	}

	items := make([]Item, 0, len(elems))
	for i, elem := range elems {
		r, err := decodeItem(elem)
		if err != nil {
			log.Printf("[ItemApp] アイテムを読み飛ばしました: index=%d, error=%v", i, err)
			continue
		}
		items = append(items, r.toItem())
	}
	return items
}

// decodeItem は一覧の1要素を解釈する。数値は桁落ちしないようjson.Numberのまま受け取る。
func decodeItem(elem json.RawMessage) (rawItem, error) {
	trimmed := bytes.TrimSpace(elem)
	if !bytes.HasPrefix(trimmed, []byte("{")) {
		return rawItem{}, fmt.Errorf("オブジェクトではありません: %s", trimmed)
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var r rawItem
	if err := dec.Decode(&r); err != nil {
		return rawItem{}, err
	}
	return r, nil
}

// CreateItem はアイテムを作成する。名前は必須。
func (a *App) CreateItem(ctx context.Context, name, description string) Status {
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if name == "" {
		return precondition("Name is required.")
	}

	res := a.client.Request(ctx, a.client.Endpoints().ItemsCreate, httpclient.RequestOptions{
		Method:    http.MethodPost,
		Body:      itemBody{Name: name, Description: description},
		Authorize: true,
	})
	if !res.Success {
		return requestFailed(res, "Create failed.")
	}
	return ok("Created.", res.StatusCode)
}

// UpdateItem はアイテムの名前と説明を置き換える。
// 更新はPUTによる全体置換で、名前と説明の両方を常に送る。
func (a *App) UpdateItem(ctx context.Context, id any, name, description string) Status {
	idStr := endpoint.FormatID(id)
	if strings.TrimSpace(idStr) == "" {
		return precondition("Item id is required.")
	}

	res := a.client.Request(ctx, a.client.Endpoints().ItemsUpdate.Path(idStr), httpclient.RequestOptions{
		Method: http.MethodPut,
		Body: itemBody{
			Name:        strings.TrimSpace(name),
			Description: strings.TrimSpace(description),
		},
		Authorize: true,
	})
	if !res.Success {
		return requestFailed(res, "Update failed.")
	}
	return ok("Saved.", res.StatusCode)
}

// DeleteItem はアイテムを削除する。
func (a *App) DeleteItem(ctx context.Context, id any) Status {
	idStr := endpoint.FormatID(id)
	if strings.TrimSpace(idStr) == "" {
		return precondition("Item id is required.")
	}

	res := a.client.Request(ctx, a.client.Endpoints().ItemsDelete.Path(idStr), httpclient.RequestOptions{
		Method:    http.MethodDelete,
		Authorize: true,
	})
	if !res.Success {
		return requestFailed(res, "Delete failed.")
	}
	return ok("Deleted.", res.StatusCode)
}
